package repository

import (
	"database/sql"
	"log/slog"

	"point-ledger/internal/domain"
	"point-ledger/internal/errors"
)

// SQLExecutor is the query surface common to sql.DB and sql.Tx, so the
// repositories run unchanged inside and outside a transaction.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

var _ SQLExecutor = (*sql.DB)(nil)

type txExecutor struct {
	*sql.Tx
}

func (t *txExecutor) Exec(query string, args ...interface{}) (sql.Result, error) {
	return t.Tx.Exec(query, args...)
}

func (t *txExecutor) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return t.Tx.Query(query, args...)
}

func (t *txExecutor) QueryRow(query string, args ...interface{}) *sql.Row {
	return t.Tx.QueryRow(query, args...)
}

// Store is the postgres-backed domain.Store. The balance write and the
// history append of one mutation go through WithCommit so they land in a
// single database transaction.
type Store struct {
	executor SQLExecutor
	logger   *slog.Logger
}

// NewStore creates a new Store instance
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		executor: db,
		logger:   logger,
	}
}

// Ledger returns a LedgerStore using the current executor
func (s *Store) Ledger() domain.LedgerStore {
	return NewLedgerRepository(s.executor, s.logger)
}

// History returns a HistoryLog using the current executor
func (s *Store) History() domain.HistoryLog {
	return NewHistoryRepository(s.executor, s.logger)
}

// WithCommit executes a function within a database transaction
func (s *Store) WithCommit(fn func(domain.Store) error) error {
	// Only sql.DB can begin transactions
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.NewAppError(errors.InternalError, "cannot begin transaction inside a transaction")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to begin transaction").WithDetails(err.Error())
	}

	txStore := &Store{
		executor: &txExecutor{Tx: tx},
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

var _ domain.Store = (*Store)(nil)
