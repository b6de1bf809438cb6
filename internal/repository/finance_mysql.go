package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"hdgstudio-market-api/internal/model"
)

// MySQLFinanceRepository implements FinanceRepository using MySQL.
// Rows are append-only; nothing updates or deletes a cash-flow record.
type MySQLFinanceRepository struct {
	db *sql.DB
}

// NewMySQLFinanceRepository creates a new MySQL finance repository.
func NewMySQLFinanceRepository(db *sql.DB) (*MySQLFinanceRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS cash_flow (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		type VARCHAR(16) NOT NULL,
		amount BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_cashflow_user (user_id)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create cash_flow table: %w", err)
	}

	log.Printf("[MySQLFinanceRepository] Initialized")
	return &MySQLFinanceRepository{db: db}, nil
}

const financeColumns = `id, user_id, type, amount, created_at`

func collectFinanceRecords(rows *sql.Rows) ([]*model.FinanceRecord, error) {
	defer rows.Close()

	var recs []*model.FinanceRecord
	for rows.Next() {
		var rec model.FinanceRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Amount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finance record: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// Create appends a cash-flow record.
func (r *MySQLFinanceRepository) Create(ctx context.Context, rec *model.FinanceRecord) (*model.FinanceRecord, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO cash_flow (user_id, type, amount) VALUES (?, ?, ?)`,
		rec.UserID, rec.Type, rec.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to insert finance record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert id: %w", err)
	}

	var created model.FinanceRecord
	row := r.db.QueryRowContext(ctx, `SELECT `+financeColumns+` FROM cash_flow WHERE id = ?`, id)
	if err := row.Scan(&created.ID, &created.UserID, &created.Type, &created.Amount, &created.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to read back finance record: %w", err)
	}
	return &created, nil
}

// GetByUser lists cash-flow records for one user, newest first.
func (r *MySQLFinanceRepository) GetByUser(ctx context.Context, userID int64) ([]*model.FinanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+financeColumns+` FROM cash_flow WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query finance records: %w", err)
	}
	return collectFinanceRecords(rows)
}

// GetAll lists all cash-flow records, newest first.
func (r *MySQLFinanceRepository) GetAll(ctx context.Context) ([]*model.FinanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+financeColumns+` FROM cash_flow ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query finance records: %w", err)
	}
	return collectFinanceRecords(rows)
}

// Summary aggregates total deposits, total withdrawals and the net.
func (r *MySQLFinanceRepository) Summary(ctx context.Context) (*model.FinanceSummary, error) {
	query := `SELECT
		COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0)
		FROM cash_flow`

	var s model.FinanceSummary
	err := r.db.QueryRowContext(ctx, query, model.FinanceDeposit, model.FinanceWithdraw).
		Scan(&s.TotalDeposit, &s.TotalWithdraw)
	if err != nil {
		return nil, fmt.Errorf("failed to compute finance summary: %w", err)
	}
	s.Net = s.TotalDeposit - s.TotalWithdraw
	return &s, nil
}

// Ensure MySQLFinanceRepository implements FinanceRepository
var _ FinanceRepository = (*MySQLFinanceRepository)(nil)
