package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/pkg/apierror"
)

// MySQLWithdrawalRepository implements WithdrawalRepository using MySQL.
type MySQLWithdrawalRepository struct {
	db *sql.DB
}

// NewMySQLWithdrawalRepository creates a new MySQL withdrawal repository.
func NewMySQLWithdrawalRepository(db *sql.DB) (*MySQLWithdrawalRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS withdraw_money (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		amount BIGINT NOT NULL,
		bank_name VARCHAR(191) NOT NULL,
		bank_number VARCHAR(64) NOT NULL,
		bank_owner VARCHAR(191) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		reviewer_id BIGINT NULL,
		requested_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		resolved_at TIMESTAMP NULL,
		INDEX idx_withdraw_user (user_id),
		INDEX idx_withdraw_status (status)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create withdraw table: %w", err)
	}

	log.Printf("[MySQLWithdrawalRepository] Initialized")
	return &MySQLWithdrawalRepository{db: db}, nil
}

const withdrawalColumns = `id, user_id, amount, bank_name, bank_number, bank_owner, status, reviewer_id, requested_at, resolved_at`

func scanWithdrawal(row interface{ Scan(...interface{}) error }) (*model.Withdrawal, error) {
	var w model.Withdrawal
	var reviewerID sql.NullInt64
	var resolvedAt sql.NullTime

	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.BankName, &w.BankNumber, &w.BankOwner,
		&w.Status, &reviewerID, &w.RequestedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	if reviewerID.Valid {
		w.ReviewerID = &reviewerID.Int64
	}
	if resolvedAt.Valid {
		w.ResolvedAt = &resolvedAt.Time
	}
	return &w, nil
}

func collectWithdrawals(rows *sql.Rows) ([]*model.Withdrawal, error) {
	defer rows.Close()

	var ws []*model.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}

// Create inserts a new PENDING withdrawal request.
func (r *MySQLWithdrawalRepository) Create(ctx context.Context, w *model.Withdrawal) (*model.Withdrawal, error) {
	query := `INSERT INTO withdraw_money (user_id, amount, bank_name, bank_number, bank_owner, status)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		w.UserID, w.Amount, w.BankName, w.BankNumber, w.BankOwner, model.WithdrawalPending)
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID finds a withdrawal request by id.
func (r *MySQLWithdrawalRepository) GetByID(ctx context.Context, id int64) (*model.Withdrawal, error) {
	w, err := scanWithdrawal(r.db.QueryRowContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdraw_money WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("withdrawal request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return w, nil
}

// GetByUser lists withdrawal requests made by the user.
func (r *MySQLWithdrawalRepository) GetByUser(ctx context.Context, userID int64) ([]*model.Withdrawal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdraw_money WHERE user_id = ? ORDER BY requested_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	return collectWithdrawals(rows)
}

// GetAll lists all withdrawal requests, newest first.
func (r *MySQLWithdrawalRepository) GetAll(ctx context.Context) ([]*model.Withdrawal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdraw_money ORDER BY requested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	return collectWithdrawals(rows)
}

// Resolve records the reviewer's decision. Only PENDING requests can be
// resolved; resolving twice is rejected so a refund cannot be issued twice.
func (r *MySQLWithdrawalRepository) Resolve(ctx context.Context, id int64, status model.WithdrawalStatus, reviewerID int64) error {
	query := `UPDATE withdraw_money SET status = ?, reviewer_id = ?, resolved_at = NOW()
		WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, status, reviewerID, id, model.WithdrawalPending)
	if err != nil {
		return fmt.Errorf("failed to resolve withdrawal: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apierror.Conflict("withdrawal request is not pending")
	}
	return nil
}

// Ensure MySQLWithdrawalRepository implements WithdrawalRepository
var _ WithdrawalRepository = (*MySQLWithdrawalRepository)(nil)
