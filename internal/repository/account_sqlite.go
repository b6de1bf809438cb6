package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/pkg/apierror"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteAccountRepository implements AccountRepository using SQLite.
// Intended for local development and single-instance deployments.
type SQLiteAccountRepository struct {
	db *sql.DB
}

// NewSQLiteAccountRepository creates a new SQLite account repository.
// dbPath is the path to the SQLite database file (e.g., "./data/accounts.db")
func NewSQLiteAccountRepository(dbPath string) (*SQLiteAccountRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteAccountTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create accounts table: %w", err)
	}

	log.Printf("[SQLiteAccountRepository] Initialized with database: %s", dbPath)
	return &SQLiteAccountRepository{db: db}, nil
}

func createSQLiteAccountTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts_sell (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		url TEXT NOT NULL,
		description TEXT NOT NULL,
		price INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		seller_id INTEGER NOT NULL,
		buyer_id INTEGER NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_status ON accounts_sell(status);
	CREATE INDEX IF NOT EXISTS idx_accounts_seller ON accounts_sell(seller_id);
	CREATE INDEX IF NOT EXISTS idx_accounts_buyer ON accounts_sell(buyer_id);
	CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts_sell(username);
	`

	_, err := db.Exec(query)
	return err
}

// Create inserts a new ACTIVE listing and returns it with its id.
func (r *SQLiteAccountRepository) Create(ctx context.Context, acc *model.Account) (*model.Account, error) {
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
func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
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
func (r *SQLiteAccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
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
func (r *SQLiteAccountRepository) GetByStatus(ctx context.Context, status model.AccountStatus) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts_sell WHERE status = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return collectAccounts(rows)
}

// GetBySeller lists accounts listed by the seller.
func (r *SQLiteAccountRepository) GetBySeller(ctx context.Context, sellerID int64) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts_sell WHERE seller_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return collectAccounts(rows)
}

// GetByBuyer lists SOLD accounts purchased by the buyer.
func (r *SQLiteAccountRepository) GetByBuyer(ctx context.Context, buyerID int64) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts_sell WHERE buyer_id = ? AND status = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerID, model.AccountSold)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return collectAccounts(rows)
}

// Update persists url, description and price edits.
func (r *SQLiteAccountRepository) Update(ctx context.Context, acc *model.Account) error {
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
func (r *SQLiteAccountRepository) UpdateSale(ctx context.Context, id, buyerID int64, newPassword string) error {
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
func (r *SQLiteAccountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts_sell WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apierror.NotFound("account not found")
	}
	return nil
}

// Close closes the repository connection.
func (r *SQLiteAccountRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteAccountRepository implements AccountRepository
var _ AccountRepository = (*SQLiteAccountRepository)(nil)
