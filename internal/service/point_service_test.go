package service

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"point-ledger/internal/domain"
	apperrors "point-ledger/internal/errors"
	"point-ledger/internal/lock"
	"point-ledger/internal/repository"
)

func newTestService(t *testing.T) *PointService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPointService(repository.NewMemoryStore(), lock.NewKeyedMutex(), logger)
}

func seedAccount(t *testing.T, svc *PointService, userID, balance int64) {
	t.Helper()
	_, err := svc.CreateAccount(userID, balance)
	require.NoError(t, err)
}

func errorCode(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	return appErr.Code
}

func TestCreateAccount(t *testing.T) {
	svc := newTestService(t)

	account, err := svc.CreateAccount(1, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)
	assert.Equal(t, int64(1000), account.Balance)

	_, err = svc.CreateAccount(1, 1000)
	assert.Equal(t, apperrors.DuplicateAccount, errorCode(t, err))
}

func TestCreateAccountValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateAccount(0, 1000)
	assert.Equal(t, apperrors.InvalidInput, errorCode(t, err))

	_, err = svc.CreateAccount(1, -1)
	assert.Equal(t, apperrors.InvalidInput, errorCode(t, err))

	_, err = svc.CreateAccount(1, domain.MaxPoint+1)
	assert.Equal(t, apperrors.InvalidInput, errorCode(t, err))
}

func TestGetAccountNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetAccount(42)
	assert.Equal(t, apperrors.AccountNotFound, errorCode(t, err))
}

func TestGetHistoryNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetHistory(42)
	assert.Equal(t, apperrors.AccountNotFound, errorCode(t, err))
}

func TestGetHistoryEmptyForFreshAccount(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 1000)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetAccountIdempotent(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 1000)

	first, err := svc.GetAccount(1)
	require.NoError(t, err)
	second, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChargeBelowMinimumDoesNotTouchState(t *testing.T) {
	svc := newTestService(t)

	// Amount validation runs before the lookup, even for unknown users.
	_, err := svc.Charge(42, domain.MinChargePoint-1)
	assert.Equal(t, apperrors.InvalidAmount, errorCode(t, err))

	_, err = svc.GetAccount(42)
	assert.Equal(t, apperrors.AccountNotFound, errorCode(t, err))

	seedAccount(t, svc, 1, 1000)
	_, err = svc.Charge(1, 99)
	assert.Equal(t, apperrors.InvalidAmount, errorCode(t, err))

	account, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), account.Balance)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUseBelowMinimumDoesNotTouchState(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Use(42, domain.MinUsePoint-1)
	assert.Equal(t, apperrors.InvalidAmount, errorCode(t, err))

	seedAccount(t, svc, 1, 1000)
	_, err = svc.Use(1, 99)
	assert.Equal(t, apperrors.InvalidAmount, errorCode(t, err))

	account, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), account.Balance)
}

func TestChargeUnknownAccount(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Charge(42, 100)
	assert.Equal(t, apperrors.AccountNotFound, errorCode(t, err))
}

func TestUseUnknownAccount(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Use(42, 100)
	assert.Equal(t, apperrors.AccountNotFound, errorCode(t, err))
}

func TestCharge(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 1000)

	account, err := svc.Charge(1, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), account.Balance)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].UserID)
	assert.Equal(t, int64(500), records[0].Amount)
	assert.Equal(t, domain.KindCharge, records[0].Kind)
}

func TestChargeCeilingBoundary(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, domain.MaxPoint-500)

	// Landing exactly on the ceiling succeeds.
	account, err := svc.Charge(1, 500)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPoint, account.Balance)

	// One point over fails and leaves the balance untouched.
	seedAccount(t, svc, 2, domain.MaxPoint-499)
	_, err = svc.Charge(2, 500)
	assert.Equal(t, apperrors.LimitExceeded, errorCode(t, err))

	unchanged, err := svc.GetAccount(2)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPoint-499, unchanged.Balance)
}

func TestChargeHugeAmountDoesNotOverflow(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 1000)

	// A sum-based ceiling check would wrap negative here and let the
	// charge through; the balance must stay untouched instead.
	_, err := svc.Charge(1, math.MaxInt64)
	assert.Equal(t, apperrors.LimitExceeded, errorCode(t, err))

	account, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), account.Balance)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUse(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 1000)

	account, err := svc.Use(1, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), account.Balance)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.KindUse, records[0].Kind)
	assert.Equal(t, int64(500), records[0].Amount)
}

func TestUseInsufficientFunds(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 500)

	_, err := svc.Use(1, 600)
	assert.Equal(t, apperrors.InsufficientFunds, errorCode(t, err))
}

func TestUseFloorBoundary(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 1000)

	// Landing exactly on the floor succeeds.
	account, err := svc.Use(1, 1000-domain.MinPoint)
	require.NoError(t, err)
	assert.Equal(t, domain.MinPoint, account.Balance)

	// One point below the floor fails even though funds would suffice.
	seedAccount(t, svc, 2, 1000)
	_, err = svc.Use(2, 1000-domain.MinPoint+1)
	assert.Equal(t, apperrors.FloorViolation, errorCode(t, err))

	unchanged, err := svc.GetAccount(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), unchanged.Balance)
}

func TestChargeHasNoFloorCheck(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 0)

	// A never-charged seed below the floor may still be charged; only Use
	// enforces the remaining-balance floor.
	account, err := svc.Charge(1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Balance)
}

func TestHistoryReflectsCommitOrder(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 1000)

	_, err := svc.Charge(1, 300)
	require.NoError(t, err)
	_, err = svc.Use(1, 200)
	require.NoError(t, err)
	_, err = svc.Charge(1, 100)
	require.NoError(t, err)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, domain.KindCharge, records[0].Kind)
	assert.Equal(t, domain.KindUse, records[1].Kind)
	assert.Equal(t, domain.KindCharge, records[2].Kind)

	// Record ids are monotonic within the user's sequence.
	assert.Less(t, records[0].ID, records[1].ID)
	assert.Less(t, records[1].ID, records[2].ID)
}

func TestConcurrentChargesSameUser(t *testing.T) {
	svc := newTestService(t)
	seedAccount(t, svc, 1, 1000)

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Charge(1, 100)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	account, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000+workers*100), account.Balance)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	require.Len(t, records, workers)
	seen := make(map[int64]bool)
	for _, record := range records {
		assert.Equal(t, domain.KindCharge, record.Kind)
		assert.Equal(t, int64(100), record.Amount)
		assert.False(t, seen[record.ID], "duplicate record id %d", record.ID)
		seen[record.ID] = true
	}
}

func TestConcurrentUsePartialSuccess(t *testing.T) {
	svc := newTestService(t)

	// 10100 admits exactly five uses of 2000: the fifth lands on the floor
	// of 100 and every further attempt must be rejected.
	seedAccount(t, svc, 1, 10100)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Use(1, 2000)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			code := err.(*apperrors.AppError).Code
			assert.Contains(t, []apperrors.ErrorCode{apperrors.InsufficientFunds, apperrors.FloorViolation}, code)
			failures++
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, successes)
	assert.Equal(t, 5, failures)

	account, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, domain.MinPoint, account.Balance)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestConcurrentChargeAndUseNetZero(t *testing.T) {
	svc := newTestService(t)

	// Five charges and five uses of 500 from 5000: every interleaving stays
	// within [2500, 7500], so all ten operations must succeed.
	seedAccount(t, svc, 1, 5000)

	const pairs = 5
	var wg sync.WaitGroup
	wg.Add(2 * pairs)
	for i := 0; i < pairs; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Charge(1, 500)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Use(1, 500)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	account, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), account.Balance)

	records, err := svc.GetHistory(1)
	require.NoError(t, err)
	assert.Len(t, records, 2*pairs)
}

func TestMutationsOnDifferentUsersDoNotBlock(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locks := lock.NewKeyedMutex()
	svc := NewPointService(repository.NewMemoryStore(), locks, logger)

	seedAccount(t, svc, 1, 1000)
	seedAccount(t, svc, 2, 1000)

	// Park a critical section on user 1 by holding its key.
	locks.Lock(1)

	blocked := make(chan struct{})
	go func() {
		_, err := svc.Charge(1, 100)
		assert.NoError(t, err)
		close(blocked)
	}()

	// User 2 proceeds while user 1's key is held.
	done := make(chan struct{})
	go func() {
		_, err := svc.Charge(2, 100)
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("charge on an uncontended user was blocked by another user's critical section")
	}

	select {
	case <-blocked:
		t.Fatal("charge on user 1 completed while its key was held")
	default:
	}

	locks.Unlock(1)

	select {
	case <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("charge on user 1 never completed after the key was released")
	}

	account, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), account.Balance)
}
