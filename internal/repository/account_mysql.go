package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/pkg/apierror"
)

// MySQLAccountRepository implements AccountRepository using MySQL.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL account repository.
// The schema is created if it does not exist.
func NewMySQLAccountRepository(db *sql.DB) (*MySQLAccountRepository, error) {
	if err := createMySQLAccountTable(db); err != nil {
		return nil, fmt.Errorf("failed to create accounts table: %w", err)
	}

	log.Printf("[MySQLAccountRepository] Initialized")
	return &MySQLAccountRepository{db: db}, nil
}

func createMySQLAccountTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts_sell (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(191) NOT NULL,
		password VARCHAR(255) NOT NULL,
		url TEXT NOT NULL,
		description TEXT NOT NULL,
		price BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
		seller_id BIGINT NOT NULL,
		buyer_id BIGINT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_accounts_status (status),
		INDEX idx_accounts_seller (seller_id),
		INDEX idx_accounts_buyer (buyer_id),
		INDEX idx_accounts_username (username)
	)`

	_, err := db.Exec(query)
	return err
}

const accountColumns = `id, username, password, url, description, price, status, seller_id, buyer_id, created_at`

// scanAccount reads one account row.
func scanAccount(row interface{ Scan(...interface{}) error }) (*model.Account, error) {
	var acc model.Account
	var buyerID sql.NullInt64

	err := row.Scan(
		&acc.ID,
		&acc.Username,
		&acc.Password,
		&acc.ListingURL,
		&acc.Description,
		&acc.Price,
		&acc.Status,
		&acc.SellerID,
		&buyerID,
		&acc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if buyerID.Valid {
		acc.BuyerID = &buyerID.Int64
	}
	return &acc, nil
}

func collectAccounts(rows *sql.Rows) ([]*model.Account, error) {
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// Create inserts a new ACTIVE listing and returns it with its id.
func (r *MySQLAccountRepository) Create(ctx context.Context, acc *model.Account) (*model.Account, error) {
	query := `INSERT INTO accounts_sell (username, password, url, description, price, status, seller_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		acc.Username, acc.Password, acc.ListingURL, acc.Description, acc.Price, model.AccountActive, acc.SellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID finds an account by id.
func (r *MySQLAccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts_sell WHERE id = ?`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// GetByUsername finds the most recent listing of a username. A sold
// account can be relisted, so older rows may exist for the same name.
func (r *MySQLAccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts_sell WHERE username = ? ORDER BY id DESC LIMIT 1`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// GetByStatus lists accounts in the given lifecycle state.
func (r *MySQLAccountRepository) GetByStatus(ctx context.Context, status model.AccountStatus) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts_sell WHERE status = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return collectAccounts(rows)
}

// GetBySeller lists accounts listed by the seller.
func (r *MySQLAccountRepository) GetBySeller(ctx context.Context, sellerID int64) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts_sell WHERE seller_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return collectAccounts(rows)
}

// GetByBuyer lists SOLD accounts purchased by the buyer.
func (r *MySQLAccountRepository) GetByBuyer(ctx context.Context, buyerID int64) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts_sell WHERE buyer_id = ? AND status = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerID, model.AccountSold)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return collectAccounts(rows)
}

// Update persists url, description and price edits.
func (r *MySQLAccountRepository) Update(ctx context.Context, acc *model.Account) error {
	query := `UPDATE accounts_sell SET url = ?, description = ?, price = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, acc.ListingURL, acc.Description, acc.Price, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apierror.NotFound("account not found")
	}
	return nil
}

// UpdateSale is the saga's final commit.
func (r *MySQLAccountRepository) UpdateSale(ctx context.Context, id, buyerID int64, newPassword string) error {
	query := `UPDATE accounts_sell SET status = ?, buyer_id = ?, password = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, model.AccountSold, buyerID, newPassword, id)
	if err != nil {
		return fmt.Errorf("failed to persist sale: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apierror.NotFound("account not found")
	}
	return nil
}

// Delete removes a listing.
func (r *MySQLAccountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts_sell WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apierror.NotFound("account not found")
	}
	return nil
}

// Close is a no-op; the shared *sql.DB is owned by main.
func (r *MySQLAccountRepository) Close() error {
	return nil
}

// Ensure MySQLAccountRepository implements AccountRepository
var _ AccountRepository = (*MySQLAccountRepository)(nil)
