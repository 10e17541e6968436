package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/finnholt/beamcast/internal/models"
)

// ErrInsufficientCredits is returned by Apply when a deduction would push the
// balance below zero. No ledger row is written in that case.
var ErrInsufficientCredits = errors.New("insufficient credits")

type CreditRepository interface {
	// Apply moves the balance and appends the ledger row in one serializable
	// transaction: the ledger can never show a movement the balance doesn't.
	Apply(ctx context.Context, entry *models.CreditTransaction) (*models.CreditTransaction, error)
	GetBalance(ctx context.Context, userID int64) (int, error)
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.CreditTransaction, error)
}

type creditRepository struct {
	db *sql.DB
}

func NewCreditRepository(db *sql.DB) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) Apply(ctx context.Context, entry *models.CreditTransaction) (*models.CreditTransaction, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer tx.Rollback()

	var balance int
	err = tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = $1 FOR UPDATE`, entry.UserID).Scan(&balance)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	newBalance := balance + entry.Amount
	if newBalance < 0 {
		return nil, ErrInsufficientCredits
	}

	entry.BalanceBefore = balance
	entry.BalanceAfter = newBalance

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return nil, err
	}

	insert := `
		INSERT INTO credit_transactions (user_id, type, amount, action, balance_before,
			balance_after, reference, original_transaction_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, insert, entry.UserID, entry.Type, entry.Amount, entry.Action,
		entry.BalanceBefore, entry.BalanceAfter, entry.Reference, entry.OriginalTransactionID,
		metadata).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET credits = $1, updated_at = NOW() WHERE id = $2`,
		newBalance, entry.UserID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return entry, nil
}

func (r *creditRepository) GetBalance(ctx context.Context, userID int64) (int, error) {
	var balance int
	err := r.db.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return balance, nil
}

func (r *creditRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, type, amount, action, balance_before, balance_after,
			reference, original_transaction_id, metadata, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.CreditTransaction
	for rows.Next() {
		var entry models.CreditTransaction
		var metadata []byte
		err := rows.Scan(&entry.ID, &entry.UserID, &entry.Type, &entry.Amount, &entry.Action,
			&entry.BalanceBefore, &entry.BalanceAfter, &entry.Reference,
			&entry.OriginalTransactionID, &metadata, &entry.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return entries, nil
}
