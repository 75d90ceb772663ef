package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"point-ledger/internal/domain"
	"point-ledger/internal/errors"
)

type ledgerRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewLedgerRepository(db SQLExecutor, logger *slog.Logger) domain.LedgerStore {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ledgerRepository) Create(userID int64, initialBalance int64) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (id, balance, updated_at)
		VALUES ($1, $2, $3)
	`

	now := time.Now()
	_, err := r.db.Exec(query, userID, initialBalance, now)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Duplicate account creation attempt", "user_id", userID)
				return nil, errors.ErrDuplicateAccount
			}
		}
		r.logger.Error("Failed to create account", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	r.logger.Info("Account created", "user_id", userID, "balance", initialBalance)
	return &domain.Account{ID: userID, Balance: initialBalance, UpdatedAt: now}, nil
}

func (r *ledgerRepository) Get(userID int64) (*domain.Account, error) {
	query := `
		SELECT id, balance, updated_at
		FROM accounts WHERE id = $1
	`

	var account domain.Account
	err := r.db.QueryRow(query, userID).Scan(
		&account.ID,
		&account.Balance,
		&account.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}

	return &account, nil
}

func (r *ledgerRepository) Put(userID int64, newBalance int64, updatedAt time.Time) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, newBalance, updatedAt, userID)
	if err != nil {
		r.logger.Error("Failed to update account balance", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to update account balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "user_id", userID)
		return nil, errors.ErrAccountNotFound
	}

	return &domain.Account{ID: userID, Balance: newBalance, UpdatedAt: updatedAt}, nil
}
