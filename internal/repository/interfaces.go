package repository

import (
	"context"

	"hdgstudio-market-api/internal/model"
)

// AccountRepository defines durable access to sellable accounts.
type AccountRepository interface {
	// Create inserts a new ACTIVE listing and returns it with its id.
	Create(ctx context.Context, acc *model.Account) (*model.Account, error)

	// GetByID finds an account by id. Returns apierror.NotFound if absent.
	GetByID(ctx context.Context, id int64) (*model.Account, error)

	// GetByUsername finds the most recent listing of a username; a sold
	// account can be relisted, so older rows may exist for the same
	// name. Returns apierror.NotFound if absent.
	GetByUsername(ctx context.Context, username string) (*model.Account, error)

	// GetByStatus lists accounts in the given lifecycle state.
	GetByStatus(ctx context.Context, status model.AccountStatus) ([]*model.Account, error)

	// GetBySeller lists accounts listed by the seller.
	GetBySeller(ctx context.Context, sellerID int64) ([]*model.Account, error)

	// GetByBuyer lists SOLD accounts purchased by the buyer.
	GetByBuyer(ctx context.Context, buyerID int64) ([]*model.Account, error)

	// Update persists url, description and price edits.
	Update(ctx context.Context, acc *model.Account) error

	// UpdateSale is the saga's final commit: status SOLD, buyer set,
	// rotated password persisted, in one statement.
	UpdateSale(ctx context.Context, id, buyerID int64, newPassword string) error

	// Delete removes a listing.
	Delete(ctx context.Context, id int64) error

	// Close closes the repository connection.
	Close() error
}

// PostRepository defines access to editorial posts.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) (*model.Post, error)
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	GetAll(ctx context.Context) ([]*model.Post, error)
	GetByEditor(ctx context.Context, editorID int64) ([]*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	UpdateStatus(ctx context.Context, id int64, status model.PostStatus) error
	Delete(ctx context.Context, id int64) error
}

// WithdrawalRepository defines access to withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *model.Withdrawal) (*model.Withdrawal, error)
	GetByID(ctx context.Context, id int64) (*model.Withdrawal, error)
	GetByUser(ctx context.Context, userID int64) ([]*model.Withdrawal, error)
	GetAll(ctx context.Context) ([]*model.Withdrawal, error)

	// Resolve records the reviewer's decision and resolution time.
	Resolve(ctx context.Context, id int64, status model.WithdrawalStatus, reviewerID int64) error
}

// FinanceRepository defines access to append-only cash-flow records.
type FinanceRepository interface {
	Create(ctx context.Context, rec *model.FinanceRecord) (*model.FinanceRecord, error)
	GetByUser(ctx context.Context, userID int64) ([]*model.FinanceRecord, error)
	GetAll(ctx context.Context) ([]*model.FinanceRecord, error)
	Summary(ctx context.Context) (*model.FinanceSummary, error)
}
