package domain

import (
	"time"
)

// Balance bounds enforced on every committed mutation, plus the minimum
// amount accepted per charge/use request.
const (
	MinPoint       int64 = 100
	MaxPoint       int64 = 100000
	MinChargePoint int64 = 100
	MinUsePoint    int64 = 100
)

// Account is one user's point balance. An account that was never created
// is absent, not zero.
type Account struct {
	ID        int64     `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerStore is the single source of truth for current balances.
type LedgerStore interface {
	// Get returns the account for userID, or ErrAccountNotFound.
	Get(userID int64) (*Account, error)
	// Put replaces the stored balance and timestamp of an existing account.
	Put(userID int64, newBalance int64, updatedAt time.Time) (*Account, error)
	// Create seeds a new account, or fails with ErrDuplicateAccount.
	Create(userID int64, initialBalance int64) (*Account, error)
}
