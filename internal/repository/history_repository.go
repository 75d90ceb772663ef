package repository

import (
	"log/slog"
	"time"

	"point-ledger/internal/domain"
	"point-ledger/internal/errors"
)

type historyRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewHistoryRepository(db SQLExecutor, logger *slog.Logger) domain.HistoryLog {
	return &historyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *historyRepository) Append(userID int64, amount int64, kind domain.TransactionKind, timestamp time.Time) (*domain.TransactionRecord, error) {
	query := `
		INSERT INTO point_transactions (user_id, amount, kind, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	record := &domain.TransactionRecord{
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
		Timestamp: timestamp,
	}

	err := r.db.QueryRow(query, userID, amount, string(kind), timestamp).Scan(&record.ID)
	if err != nil {
		r.logger.Error("Failed to append transaction record",
			"user_id", userID,
			"amount", amount,
			"kind", kind,
			"error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to append transaction record").WithDetails(err.Error())
	}

	return record, nil
}

func (r *historyRepository) ListByUser(userID int64) ([]domain.TransactionRecord, error) {
	query := `
		SELECT id, user_id, amount, kind, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Error("Failed to list transaction records", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transaction records").WithDetails(err.Error())
	}
	defer rows.Close()

	records := make([]domain.TransactionRecord, 0)
	for rows.Next() {
		var record domain.TransactionRecord
		var kind string
		if err := rows.Scan(&record.ID, &record.UserID, &record.Amount, &kind, &record.Timestamp); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction record").WithDetails(err.Error())
		}
		record.Kind = domain.TransactionKind(kind)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to read transaction records").WithDetails(err.Error())
	}

	return records, nil
}
