package service

import (
	"log/slog"
	"time"

	"point-ledger/internal/domain"
	"point-ledger/internal/errors"
	"point-ledger/internal/lock"
)

// PointService orchestrates every balance mutation as one logically atomic
// unit: validate, then read, compute, write and log under the per-user
// exclusion. Amount-floor checks run before any state access so malformed
// requests never enter the critical section; existence and balance checks
// run inside it because they depend on state that can change concurrently.
type PointService struct {
	store  domain.Store
	locks  *lock.KeyedMutex
	logger *slog.Logger
}

func NewPointService(store domain.Store, locks *lock.KeyedMutex, logger *slog.Logger) *PointService {
	return &PointService{
		store:  store,
		locks:  locks,
		logger: logger,
	}
}

// CreateAccount seeds a new account with an initial balance.
func (s *PointService) CreateAccount(userID int64, initialBalance int64) (*domain.Account, error) {
	s.logger.Info("Creating account", "user_id", userID, "initial_balance", initialBalance)

	if userID <= 0 {
		return nil, errors.NewAppError(errors.InvalidInput, "user id must be positive")
	}
	if initialBalance < 0 {
		return nil, errors.NewAppError(errors.InvalidInput, "initial balance must not be negative")
	}
	if initialBalance > domain.MaxPoint {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "initial balance must not exceed %d", domain.MaxPoint)
	}

	return s.store.Ledger().Create(userID, initialBalance)
}

// GetAccount returns the current account state. Pure read; no exclusion
// beyond the store's own per-key consistency.
func (s *PointService) GetAccount(userID int64) (*domain.Account, error) {
	return s.store.Ledger().Get(userID)
}

// GetHistory returns the user's transaction records in commit order.
// History on an unknown user fails like the account lookup would, not
// with an empty list.
func (s *PointService) GetHistory(userID int64) ([]domain.TransactionRecord, error) {
	if _, err := s.store.Ledger().Get(userID); err != nil {
		return nil, err
	}
	return s.store.History().ListByUser(userID)
}

// Charge increases the user's balance by amount.
func (s *PointService) Charge(userID int64, amount int64) (*domain.Account, error) {
	s.logger.Info("Processing charge", "user_id", userID, "amount", amount)

	if amount < domain.MinChargePoint {
		return nil, errors.NewAppErrorf(errors.InvalidAmount, "charge amount must be at least %d", domain.MinChargePoint)
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	account, err := s.store.Ledger().Get(userID)
	if err != nil {
		return nil, err
	}

	// Compared as headroom rather than as a sum: the sum overflows int64
	// for large amounts, which would slip past the ceiling and commit a
	// negative balance.
	if amount > domain.MaxPoint-account.Balance {
		s.logger.Warn("Charge rejected", "user_id", userID, "balance", account.Balance, "amount", amount)
		return nil, errors.ErrLimitExceeded
	}
	newBalance := account.Balance + amount

	updated, err := s.commit(userID, amount, newBalance, domain.KindCharge)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Charge committed", "user_id", userID, "amount", amount, "balance", updated.Balance)
	return updated, nil
}

// Use decreases the user's balance by amount. The remaining balance may
// not drop below MinPoint; that floor applies to Use only, never to
// Charge.
func (s *PointService) Use(userID int64, amount int64) (*domain.Account, error) {
	s.logger.Info("Processing use", "user_id", userID, "amount", amount)

	if amount < domain.MinUsePoint {
		return nil, errors.NewAppErrorf(errors.InvalidAmount, "use amount must be at least %d", domain.MinUsePoint)
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	account, err := s.store.Ledger().Get(userID)
	if err != nil {
		return nil, err
	}

	if account.Balance < amount {
		s.logger.Warn("Use rejected", "user_id", userID, "balance", account.Balance, "amount", amount)
		return nil, errors.ErrInsufficientFunds
	}

	newBalance := account.Balance - amount
	if newBalance < domain.MinPoint {
		s.logger.Warn("Use rejected", "user_id", userID, "balance", account.Balance, "amount", amount)
		return nil, errors.ErrFloorViolation
	}

	updated, err := s.commit(userID, amount, newBalance, domain.KindUse)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Use committed", "user_id", userID, "amount", amount, "balance", updated.Balance)
	return updated, nil
}

// commit writes the new balance and the matching history record as one
// unit. The record goes in first so a reader that already sees the new
// balance finds the record that produced it. Must be called with the
// user's key held.
func (s *PointService) commit(userID int64, amount int64, newBalance int64, kind domain.TransactionKind) (*domain.Account, error) {
	var updated *domain.Account
	now := time.Now()

	err := s.store.WithCommit(func(st domain.Store) error {
		if _, err := st.History().Append(userID, amount, kind, now); err != nil {
			return err
		}
		var err error
		updated, err = st.Ledger().Put(userID, newBalance, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
