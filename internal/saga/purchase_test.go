package saga

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/reservation"
	"hdgstudio-market-api/pkg/apierror"
)

// ---- fakes ----

type fakeAccounts struct {
	mu              sync.Mutex
	accounts        map[int64]*model.Account
	failUpdateSale  int // remaining UpdateSale failures, -1 = always
	updateSaleCalls int
}

func newFakeAccounts(accounts ...*model.Account) *fakeAccounts {
	m := make(map[int64]*model.Account)
	for _, a := range accounts {
		m[a.ID] = a
	}
	return &fakeAccounts{accounts: m}
}

func (f *fakeAccounts) Create(ctx context.Context, acc *model.Account) (*model.Account, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, apierror.NotFound("account not found")
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccounts) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return nil, apierror.NotFound("")
}

func (f *fakeAccounts) GetByStatus(ctx context.Context, status model.AccountStatus) ([]*model.Account, error) {
	return nil, nil
}

func (f *fakeAccounts) GetBySeller(ctx context.Context, sellerID int64) ([]*model.Account, error) {
	return nil, nil
}

func (f *fakeAccounts) GetByBuyer(ctx context.Context, buyerID int64) ([]*model.Account, error) {
	return nil, nil
}

func (f *fakeAccounts) Update(ctx context.Context, acc *model.Account) error { return nil }

func (f *fakeAccounts) UpdateSale(ctx context.Context, id, buyerID int64, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateSaleCalls++
	if f.failUpdateSale != 0 {
		if f.failUpdateSale > 0 {
			f.failUpdateSale--
		}
		return errors.New("database unavailable")
	}
	acc, ok := f.accounts[id]
	if !ok {
		return apierror.NotFound("account not found")
	}
	acc.Status = model.AccountSold
	acc.BuyerID = &buyerID
	acc.Password = newPassword
	return nil
}

func (f *fakeAccounts) Delete(ctx context.Context, id int64) error { return nil }
func (f *fakeAccounts) Close() error                               { return nil }

func (f *fakeAccounts) get(id int64) model.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.accounts[id]
}

type fakeFund struct {
	mu              sync.Mutex
	balances        map[int64]int64
	failGetBalance  error
	failAdjustAfter int // fail AdjustBalance calls beyond this count; 0 = never
	adjustCalls     int
}

func newFakeFund(balances map[int64]int64) *fakeFund {
	return &fakeFund{balances: balances}
}

func (f *fakeFund) GetBalance(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGetBalance != nil {
		return 0, f.failGetBalance
	}
	return f.balances[userID], nil
}

func (f *fakeFund) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adjustCalls++
	if f.failAdjustAfter > 0 && f.adjustCalls > f.failAdjustAfter {
		return 0, errors.New("pay service flapping")
	}
	f.balances[userID] += delta
	return f.balances[userID], nil
}

func (f *fakeFund) balance(userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

type fakeIdentity struct {
	mu                 sync.Mutex
	emails             map[int64]string
	sessionPasswords   map[string]string
	sessionEmails      map[string]string
	failChangePassword error
	failChangeEmail    error
	failRevertPassword error
	passwordChanges    int
}

func newFakeIdentity(emails map[int64]string) *fakeIdentity {
	return &fakeIdentity{
		emails:           emails,
		sessionPasswords: make(map[string]string),
		sessionEmails:    make(map[string]string),
	}
}

func (f *fakeIdentity) GetEmail(ctx context.Context, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.emails[userID]
	if !ok {
		return "", apierror.Upstream("USER_NOT_FOUND", fmt.Sprintf("no user %d", userID))
	}
	return email, nil
}

func (f *fakeIdentity) ChangePassword(ctx context.Context, sessionID, oldPassword, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwordChanges++
	if f.passwordChanges == 1 && f.failChangePassword != nil {
		return f.failChangePassword
	}
	if f.passwordChanges > 1 && f.failRevertPassword != nil {
		return f.failRevertPassword
	}
	f.sessionPasswords[sessionID] = newPassword
	return nil
}

func (f *fakeIdentity) ChangeEmail(ctx context.Context, sessionID, newEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChangeEmail != nil {
		return f.failChangeEmail
	}
	f.sessionEmails[sessionID] = newEmail
	return nil
}

func (f *fakeIdentity) CheckCredentials(ctx context.Context, username, password string) error {
	return nil
}

func (f *fakeIdentity) sessionPassword(sessionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionPasswords[sessionID]
}

func (f *fakeIdentity) sessionEmail(sessionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionEmails[sessionID]
}

// ---- fixtures ----

const (
	accountID = int64(1)
	sellerID  = int64(10)
	buyerID   = int64(20)
)

func listedAccount() *model.Account {
	return &model.Account{
		ID:          accountID,
		Username:    "gamer123",
		Password:    "old-secret",
		ListingURL:  "https://img.example/acc1.png",
		Description: "endgame account",
		Price:       100,
		Status:      model.AccountActive,
		SellerID:    sellerID,
		CreatedAt:   time.Now(),
	}
}

func sessionFor(username string) string {
	return base64.StdEncoding.EncodeToString([]byte(username))
}

type fixture struct {
	orch         *Orchestrator
	reservations reservation.Store
	accounts     *fakeAccounts
	fund         *fakeFund
	identity     *fakeIdentity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := newFakeAccounts(listedAccount())
	fund := newFakeFund(map[int64]int64{buyerID: 150, sellerID: 0})
	identity := newFakeIdentity(map[int64]string{
		buyerID:  "buyer@example.com",
		sellerID: "seller@example.com",
	})
	store := reservation.NewMemoryStore()

	orch := NewOrchestrator(store, accounts, fund, identity, Config{
		CommitRetries: 2,
		CommitBackoff: time.Millisecond,
		FeeRate:       "0.02",
	})

	return &fixture{
		orch:         orch,
		reservations: store,
		accounts:     accounts,
		fund:         fund,
		identity:     identity,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr), "expected *apierror.Error, got %T: %v", err, err)
	assert.Equal(t, code, apiErr.Code)
}

func assertReservationActive(t *testing.T, store reservation.Store) {
	t.Helper()
	rec, err := store.Get(context.Background(), accountID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.AccountActive, rec.Status)
	assert.Nil(t, rec.BuyerID)
}

// ---- tests ----

func TestPurchase_Success(t *testing.T) {
	f := newFixture(t)

	creds, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	require.NoError(t, err)

	assert.Equal(t, "gamer123", creds.Username)
	assert.GreaterOrEqual(t, len(creds.Password), 14)
	assert.True(t, strings.ContainsAny(creds.Password, "abcdefghijklmnopqrstuvwxyz"))
	assert.True(t, strings.ContainsAny(creds.Password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	assert.True(t, strings.ContainsAny(creds.Password, "0123456789"))
	assert.True(t, strings.ContainsAny(creds.Password, "!@#$%^&*()_+-=[]{};:,.<>?"))

	// Money moved: buyer pays full price, seller receives 98%.
	assert.Equal(t, int64(50), f.fund.balance(buyerID))
	assert.Equal(t, int64(98), f.fund.balance(sellerID))

	// Durable record committed.
	acc := f.accounts.get(accountID)
	assert.Equal(t, model.AccountSold, acc.Status)
	require.NotNil(t, acc.BuyerID)
	assert.Equal(t, buyerID, *acc.BuyerID)
	assert.Equal(t, creds.Password, acc.Password)

	// Credentials rotated and email retargeted to the buyer.
	session := sessionFor("gamer123")
	assert.Equal(t, creds.Password, f.identity.sessionPassword(session))
	assert.Equal(t, "buyer@example.com", f.identity.sessionEmail(session))

	// Reservation remains claimed after commit.
	rec, err := f.reservations.Get(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountSold, rec.Status)
}

func TestPurchase_MutualExclusion(t *testing.T) {
	f := newFixture(t)
	// Enough funds for everyone so only the reservation decides.
	for i := int64(0); i < 10; i++ {
		f.fund.balances[100+i] = 1000
		f.identity.emails[100+i] = fmt.Sprintf("buyer%d@example.com", i)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := int64(0); i < 10; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.orch.Purchase(context.Background(), accountID, 100+id, fmt.Sprintf("user%d", id))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var apiErr *apierror.Error
			if assert.True(t, errors.As(err, &apiErr)) {
				assert.Contains(t, []string{"ALREADY_RESERVED", "ALREADY_SOLD"}, apiErr.Code)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one concurrent purchase must succeed")
}

func TestPurchase_SelfPurchaseRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Purchase(context.Background(), accountID, buyerID, "gamer123")
	assertCode(t, err, "SELF_PURCHASE")

	// No balance or credential mutation happened.
	assert.Equal(t, int64(150), f.fund.balance(buyerID))
	assert.Equal(t, int64(0), f.fund.balance(sellerID))
	assert.Equal(t, 0, f.fund.adjustCalls)
	assert.Empty(t, f.identity.sessionPasswords)

	assertReservationActive(t, f.reservations)
}

func TestPurchase_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Purchase(context.Background(), 999, buyerID, "buyer_user")
	assertCode(t, err, "NOT_FOUND")
}

func TestPurchase_DurableAlreadySold(t *testing.T) {
	f := newFixture(t)
	other := int64(55)
	f.accounts.accounts[accountID].Status = model.AccountSold
	f.accounts.accounts[accountID].BuyerID = &other

	_, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	assertCode(t, err, "ALREADY_SOLD")

	assert.Equal(t, 0, f.fund.adjustCalls)
	assertReservationActive(t, f.reservations)
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.fund.balances[buyerID] = 50

	_, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	assertCode(t, err, "INSUFFICIENT_FUNDS")

	assert.Equal(t, int64(50), f.fund.balance(buyerID))
	assert.Equal(t, int64(0), f.fund.balance(sellerID))
	assert.Equal(t, model.AccountActive, f.accounts.get(accountID).Status)
	assertReservationActive(t, f.reservations)
}

func TestPurchase_BalanceCheckUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.fund.failGetBalance = apierror.Upstream("PAY_DOWN", "pay service unreachable")

	_, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	assertCode(t, err, "UPSTREAM_UNAVAILABLE")

	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "PAY_DOWN", apiErr.UpstreamCode)
	assert.Equal(t, "pay service unreachable", apiErr.Message)

	assertReservationActive(t, f.reservations)
}

func TestPurchase_CompensatesAfterPaymentsBeforeRotation(t *testing.T) {
	f := newFixture(t)
	f.identity.failChangePassword = apierror.Upstream("SESSION_REJECTED", "bad session")

	_, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	assertCode(t, err, "UPSTREAM_UNAVAILABLE")

	// Both transfers reversed.
	assert.Equal(t, int64(150), f.fund.balance(buyerID))
	assert.Equal(t, int64(0), f.fund.balance(sellerID))

	// Rotation never happened, so there is nothing to revert.
	assert.Equal(t, "", f.identity.sessionPassword(sessionFor("gamer123")))

	assert.Equal(t, model.AccountActive, f.accounts.get(accountID).Status)
	assertReservationActive(t, f.reservations)
}

func TestPurchase_CompensatesAfterEmailFailure(t *testing.T) {
	f := newFixture(t)
	f.identity.failChangeEmail = apierror.Upstream("MAIL_LOCKED", "mailbox locked")

	_, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	assertCode(t, err, "UPSTREAM_UNAVAILABLE")

	// Transfers reversed and the password rotated back to the listing
	// secret.
	assert.Equal(t, int64(150), f.fund.balance(buyerID))
	assert.Equal(t, int64(0), f.fund.balance(sellerID))
	assert.Equal(t, "old-secret", f.identity.sessionPassword(sessionFor("gamer123")))

	assertReservationActive(t, f.reservations)
}

func TestPurchase_CommitRetriesThenSucceeds(t *testing.T) {
	f := newFixture(t)
	f.accounts.failUpdateSale = 1 // first attempt fails, retry lands

	creds, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	require.NoError(t, err)
	require.NotNil(t, creds)

	assert.Equal(t, 2, f.accounts.updateSaleCalls)
	assert.Equal(t, model.AccountSold, f.accounts.get(accountID).Status)
}

func TestPurchase_CommitExhaustionCompensatesEverything(t *testing.T) {
	f := newFixture(t)
	f.accounts.failUpdateSale = -1 // persistence never recovers

	_, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	assertCode(t, err, "PERSISTENCE_FAILURE")

	assert.Equal(t, 2, f.accounts.updateSaleCalls)

	// Full reverse: money back, password back, email back, reservation
	// released.
	session := sessionFor("gamer123")
	assert.Equal(t, int64(150), f.fund.balance(buyerID))
	assert.Equal(t, int64(0), f.fund.balance(sellerID))
	assert.Equal(t, "old-secret", f.identity.sessionPassword(session))
	assert.Equal(t, "seller@example.com", f.identity.sessionEmail(session))
	assertReservationActive(t, f.reservations)
}

func TestPurchase_CompensationFailureDoesNotMaskCause(t *testing.T) {
	f := newFixture(t)
	f.identity.failChangeEmail = apierror.Upstream("MAIL_LOCKED", "mailbox locked")
	f.identity.failRevertPassword = errors.New("identity flapping")
	f.fund.failAdjustAfter = 2 // forward transfers land, compensating transfers fail

	// Every compensation fails; the saga must still surface the
	// original email failure.
	_, err := f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")

	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", apiErr.Code)
	assert.Equal(t, "MAIL_LOCKED", apiErr.UpstreamCode)

	// Reservation released even when compensations fail.
	assertReservationActive(t, f.reservations)
}

func TestSellerPayout_Rounding(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		price  int64
		payout int64
	}{
		{100, 98},
		{50, 49},
		{99, 97},  // 97.02 rounds down
		{75, 74},  // 73.5 rounds half away from zero
		{1, 1},    // 0.98 rounds up
		{10000, 9800},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.payout, f.orch.SellerPayout(tt.price), "price %d", tt.price)
	}
}

func TestPurchase_LostReservationRaceDoesNotTouchWinner(t *testing.T) {
	f := newFixture(t)

	// Winner holds the reservation.
	won, err := f.reservations.Reserve(context.Background(), accountID, 77)
	require.NoError(t, err)
	require.True(t, won)

	_, err = f.orch.Purchase(context.Background(), accountID, buyerID, "buyer_user")
	assertCode(t, err, "ALREADY_RESERVED")

	// The loser must not have released the winner's claim.
	rec, err := f.reservations.Get(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountSold, rec.Status)
	require.NotNil(t, rec.BuyerID)
	assert.Equal(t, int64(77), *rec.BuyerID)
}
