package repository

import (
	"sync"
	"time"

	"point-ledger/internal/domain"
	"point-ledger/internal/errors"
)

// MemoryStore is the in-memory domain.Store. Each side is guarded by its
// own RWMutex so reads on different keys never block each other; write
// serialization per user comes from the engine's per-key exclusion.
// WithCommit is a pass-through: the engine appends the history record
// before publishing the new balance, so a reader that observes a balance
// always finds the record that produced it.
type MemoryStore struct {
	ledger  *memoryLedger
	history *memoryHistory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ledger:  &memoryLedger{accounts: make(map[int64]domain.Account)},
		history: &memoryHistory{byUser: make(map[int64][]domain.TransactionRecord)},
	}
}

func (s *MemoryStore) Ledger() domain.LedgerStore {
	return s.ledger
}

func (s *MemoryStore) History() domain.HistoryLog {
	return s.history
}

func (s *MemoryStore) WithCommit(fn func(domain.Store) error) error {
	return fn(s)
}

var _ domain.Store = (*MemoryStore)(nil)

type memoryLedger struct {
	mu       sync.RWMutex
	accounts map[int64]domain.Account
}

func (l *memoryLedger) Get(userID int64) (*domain.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, ok := l.accounts[userID]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return &account, nil
}

func (l *memoryLedger) Put(userID int64, newBalance int64, updatedAt time.Time) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[userID]; !ok {
		return nil, errors.ErrAccountNotFound
	}
	account := domain.Account{ID: userID, Balance: newBalance, UpdatedAt: updatedAt}
	l.accounts[userID] = account
	return &account, nil
}

func (l *memoryLedger) Create(userID int64, initialBalance int64) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[userID]; ok {
		return nil, errors.ErrDuplicateAccount
	}
	account := domain.Account{ID: userID, Balance: initialBalance, UpdatedAt: time.Now()}
	l.accounts[userID] = account
	return &account, nil
}

type memoryHistory struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[int64][]domain.TransactionRecord
}

func (h *memoryHistory) Append(userID int64, amount int64, kind domain.TransactionKind, timestamp time.Time) (*domain.TransactionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	record := domain.TransactionRecord{
		ID:        h.nextID,
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
		Timestamp: timestamp,
	}
	h.byUser[userID] = append(h.byUser[userID], record)
	return &record, nil
}

func (h *memoryHistory) ListByUser(userID int64) ([]domain.TransactionRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	records := h.byUser[userID]
	out := make([]domain.TransactionRecord, len(records))
	copy(out, records)
	return out, nil
}
