package domain

import (
	"time"
)

// TransactionKind encodes the direction of a balance change. The amount on
// a record is always positive; the kind carries the sign.
type TransactionKind string

const (
	KindCharge TransactionKind = "CHARGE"
	KindUse    TransactionKind = "USE"
)

// TransactionRecord is one immutable entry in a user's history. Records are
// never mutated or deleted; the per-user sequence reflects commit order.
type TransactionRecord struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    int64           `json:"amount"`
	Kind      TransactionKind `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
}

// HistoryLog is the append-only transaction history. Record ids are
// monotonically assigned and unique across the whole log.
type HistoryLog interface {
	Append(userID int64, amount int64, kind TransactionKind, timestamp time.Time) (*TransactionRecord, error)
	// ListByUser returns records in commit order. A user with no history
	// yields an empty slice, not an error.
	ListByUser(userID int64) ([]TransactionRecord, error)
}

// Store bundles the ledger and history behind one commit boundary.
// WithCommit runs fn so that everything fn writes becomes visible as a
// single unit; a durable backend implements it with a database
// transaction, the in-memory backend relies on the caller's per-user
// exclusion.
type Store interface {
	Ledger() LedgerStore
	History() HistoryLog
	WithCommit(fn func(Store) error) error
}
