// Package saga implements the purchase flow across the fund-transfer
// and identity collaborators, which do not share a transactional
// boundary. Each forward step that mutates remote state appends a
// compensating action; on failure the recorded actions run in reverse
// and the reservation is released.
package saga

import (
	"context"
	"encoding/base64"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"hdgstudio-market-api/internal/client"
	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/repository"
	"hdgstudio-market-api/internal/reservation"
	"hdgstudio-market-api/pkg/apierror"
	"hdgstudio-market-api/pkg/password"
)

// Config holds purchase policy knobs.
type Config struct {
	// CommitRetries is how many times the final persistence step is
	// retried before the saga gives up and compensates.
	CommitRetries int

	// CommitBackoff is the delay between commit retries, growing
	// linearly per attempt.
	CommitBackoff time.Duration

	// FeeRate is the platform fee retained per sale, e.g. "0.02".
	FeeRate string
}

// Orchestrator sequences one purchase across the reservation store,
// the fund and identity collaborators and the account repository.
// Multiple orchestrator processes may run concurrently; the reservation
// store is the only serialization point.
type Orchestrator struct {
	reservations  reservation.Store
	accounts      repository.AccountRepository
	fund          client.FundClient
	identity      client.IdentityClient
	commitRetries int
	commitBackoff time.Duration
	payoutRate    decimal.Decimal // 1 - fee
}

// NewOrchestrator creates a purchase orchestrator.
func NewOrchestrator(
	reservations reservation.Store,
	accounts repository.AccountRepository,
	fund client.FundClient,
	identity client.IdentityClient,
	cfg Config,
) *Orchestrator {
	if cfg.CommitRetries <= 0 {
		cfg.CommitRetries = 3
	}
	if cfg.CommitBackoff <= 0 {
		cfg.CommitBackoff = 500 * time.Millisecond
	}
	fee, err := decimal.NewFromString(cfg.FeeRate)
	if err != nil || fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		fee = decimal.RequireFromString("0.02")
	}

	return &Orchestrator{
		reservations:  reservations,
		accounts:      accounts,
		fund:          fund,
		identity:      identity,
		commitRetries: cfg.CommitRetries,
		commitBackoff: cfg.CommitBackoff,
		payoutRate:    decimal.NewFromInt(1).Sub(fee),
	}
}

// SellerPayout returns what the seller receives for a given price:
// price × (1 − fee), rounded half away from zero to minor units. The
// retained fee is not separately ledgered in this flow.
func (o *Orchestrator) SellerPayout(price int64) int64 {
	return decimal.NewFromInt(price).Mul(o.payoutRate).Round(0).IntPart()
}

// compensation is one recorded undo action. Compensations are
// best-effort: a failure is logged, never re-raised, so the original
// cause is not masked.
type compensation struct {
	name string
	run  func(ctx context.Context) error
}

// Purchase executes the purchase of accountID by buyerID. On success
// the buyer receives the account's username and freshly rotated
// password. On failure the classified error is returned after all
// recorded compensations ran in reverse order and the reservation was
// released.
func (o *Orchestrator) Purchase(ctx context.Context, accountID, buyerID int64, buyerUsername string) (*model.Credentials, error) {
	// Step 1: win the account. The reservation store's check-and-set is
	// the sole thing preventing two buyers from both proceeding. On a
	// lost race there is nothing to release: the claim belongs to the
	// winner.
	won, err := o.reservations.Reserve(ctx, accountID, buyerID)
	if err != nil {
		return nil, apierror.Upstream("RESERVATION_STORE", err.Error())
	}
	if !won {
		return nil, apierror.AlreadyReserved("")
	}

	var undo []compensation

	// Step 2: load and validate. Nothing remote has been mutated yet,
	// so failures here release the reservation and abort.
	account, err := o.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, o.fail(ctx, accountID, undo, err)
	}
	if account.Username == buyerUsername {
		return nil, o.fail(ctx, accountID, undo, apierror.SelfPurchase(""))
	}
	if account.Status == model.AccountSold {
		// Reservation and durable state drifted; durable wins.
		return nil, o.fail(ctx, accountID, undo, apierror.AlreadySold(""))
	}

	// Step 3: balance check.
	balance, err := o.fund.GetBalance(ctx, buyerID)
	if err != nil {
		return nil, o.fail(ctx, accountID, undo, err)
	}
	if balance < account.Price {
		return nil, o.fail(ctx, accountID, undo, apierror.InsufficientFunds(""))
	}

	// Step 4: debit buyer.
	price := account.Price
	if _, err := o.fund.AdjustBalance(ctx, buyerID, -price); err != nil {
		return nil, o.fail(ctx, accountID, undo, err)
	}
	undo = append(undo, compensation{
		name: "refund_buyer",
		run: func(ctx context.Context) error {
			_, err := o.fund.AdjustBalance(ctx, buyerID, price)
			return err
		},
	})

	// Step 5: credit seller, minus the platform fee.
	payout := o.SellerPayout(price)
	sellerID := account.SellerID
	if _, err := o.fund.AdjustBalance(ctx, sellerID, payout); err != nil {
		return nil, o.fail(ctx, accountID, undo, err)
	}
	undo = append(undo, compensation{
		name: "reverse_seller_credit",
		run: func(ctx context.Context) error {
			_, err := o.fund.AdjustBalance(ctx, sellerID, -payout)
			return err
		},
	})

	// Step 6: rotate the credentials. The session addressing the
	// identity service is derived from the listed username.
	newSecret, err := password.Generate(password.MinLength)
	if err != nil {
		return nil, o.fail(ctx, accountID, undo, apierror.InternalError("failed to generate credentials"))
	}
	sessionID := base64.StdEncoding.EncodeToString([]byte(account.Username))
	oldSecret := account.Password
	if err := o.identity.ChangePassword(ctx, sessionID, oldSecret, newSecret); err != nil {
		return nil, o.fail(ctx, accountID, undo, err)
	}
	undo = append(undo, compensation{
		name: "revert_password",
		run: func(ctx context.Context) error {
			return o.identity.ChangePassword(ctx, sessionID, newSecret, oldSecret)
		},
	})

	// Step 7: retarget the account's email to the buyer. Both email
	// snapshots are taken here; the seller's is only needed if a later
	// step forces the rotation to be undone.
	buyerEmail, err := o.identity.GetEmail(ctx, buyerID)
	if err != nil {
		return nil, o.fail(ctx, accountID, undo, err)
	}
	sellerEmail, err := o.identity.GetEmail(ctx, sellerID)
	if err != nil {
		return nil, o.fail(ctx, accountID, undo, err)
	}
	if err := o.identity.ChangeEmail(ctx, sessionID, buyerEmail); err != nil {
		return nil, o.fail(ctx, accountID, undo, err)
	}
	undo = append(undo, compensation{
		name: "revert_email",
		run: func(ctx context.Context) error {
			return o.identity.ChangeEmail(ctx, sessionID, sellerEmail)
		},
	})

	// Step 8: commit. Funds moved and credentials rotated; reversing a
	// completed rotation while the buyer may already hold the new
	// secret is unsafe, so persistence is retried before the saga is
	// allowed to compensate.
	if err := o.commit(ctx, accountID, buyerID, newSecret); err != nil {
		log.Printf("[PurchaseSaga] ALERT: commit failed for account %d after %d attempts, compensating a completed purchase: %v",
			accountID, o.commitRetries, err)
		return nil, o.fail(ctx, accountID, undo, apierror.PersistenceFailure(err.Error()))
	}

	log.Printf("[PurchaseSaga] Account %d sold to buyer %d (price=%d, payout=%d)",
		accountID, buyerID, price, payout)

	return &model.Credentials{
		Username: account.Username,
		Password: newSecret,
	}, nil
}

// commit persists the sale with bounded retries and linear backoff.
func (o *Orchestrator) commit(ctx context.Context, accountID, buyerID int64, newSecret string) error {
	var err error
	for attempt := 1; attempt <= o.commitRetries; attempt++ {
		if err = o.accounts.UpdateSale(ctx, accountID, buyerID, newSecret); err == nil {
			return nil
		}
		log.Printf("[PurchaseSaga] commit attempt %d/%d failed for account %d: %v",
			attempt, o.commitRetries, accountID, err)
		if attempt < o.commitRetries {
			select {
			case <-time.After(time.Duration(attempt) * o.commitBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// fail runs the recorded compensations in reverse order, releases the
// reservation, and re-raises the original cause unchanged.
func (o *Orchestrator) fail(ctx context.Context, accountID int64, undo []compensation, cause error) error {
	for i := len(undo) - 1; i >= 0; i-- {
		c := undo[i]
		if err := c.run(ctx); err != nil {
			log.Printf("[PurchaseSaga] compensation %s failed for account %d: %v", c.name, accountID, err)
		}
	}

	if err := o.reservations.Rollback(ctx, accountID); err != nil {
		log.Printf("[PurchaseSaga] failed to release reservation for account %d: %v", accountID, err)
	}

	return cause
}
