package reservation

import (
	"context"

	"hdgstudio-market-api/internal/model"
)

// Record is the ephemeral reservation state for one account. It lives
// only in the reservation store and is the single source of truth for
// "is this account currently claimed".
type Record struct {
	Status  model.AccountStatus `json:"status"`
	BuyerID *int64              `json:"buyerId,omitempty"`
}

// Store is the atomic check-and-set primitive the purchase saga's
// concurrency safety rests on. Reserve must be evaluated as a single
// indivisible operation relative to all other Reserve calls for the
// same account, across every orchestrator process.
//
// This abstraction allows swapping between the memory store
// (development, single process) and Redis (production) without
// changing business logic.
type Store interface {
	// Reserve transitions the account's record to SOLD with the given
	// buyer if and only if it is currently ACTIVE. An absent record is
	// treated as ACTIVE and claimed in the same evaluation. Returns
	// false without mutation if the record is already SOLD.
	Reserve(ctx context.Context, accountID, buyerID int64) (bool, error)

	// Rollback resets a SOLD record to ACTIVE with no buyer. No-op if
	// the record is absent or already ACTIVE. Idempotent.
	Rollback(ctx context.Context, accountID int64) error

	// Sync pushes durable account state into the store. SOLD always
	// overwrites; ACTIVE only creates a missing record, so an in-flight
	// reservation is never released by reconciliation.
	Sync(ctx context.Context, accountID int64, status model.AccountStatus) error

	// Get returns the current record, or nil if absent.
	Get(ctx context.Context, accountID int64) (*Record, error)
}
