package service

import (
	"context"
	"time"

	"hdgstudio-market-api/internal/client"
	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/repository"
	"hdgstudio-market-api/pkg/apierror"
)

// fakeAccountRepo is an in-memory AccountRepository for service tests.
type fakeAccountRepo struct {
	accounts map[int64]*model.Account
	nextID   int64
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[int64]*model.Account), nextID: 1}
}

func (f *fakeAccountRepo) Create(_ context.Context, acc *model.Account) (*model.Account, error) {
	cp := *acc
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.nextID++
	f.accounts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id int64) (*model.Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, apierror.NotFound("account not found")
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	var latest *model.Account
	for _, acc := range f.accounts {
		if acc.Username == username && (latest == nil || acc.ID > latest.ID) {
			latest = acc
		}
	}
	if latest == nil {
		return nil, apierror.NotFound("account not found")
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeAccountRepo) GetByStatus(_ context.Context, status model.AccountStatus) ([]*model.Account, error) {
	var out []*model.Account
	for _, acc := range f.accounts {
		if acc.Status == status {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) GetBySeller(_ context.Context, sellerID int64) ([]*model.Account, error) {
	var out []*model.Account
	for _, acc := range f.accounts {
		if acc.SellerID == sellerID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) GetByBuyer(_ context.Context, buyerID int64) ([]*model.Account, error) {
	var out []*model.Account
	for _, acc := range f.accounts {
		if acc.BuyerID != nil && *acc.BuyerID == buyerID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) Update(_ context.Context, acc *model.Account) error {
	stored, ok := f.accounts[acc.ID]
	if !ok {
		return apierror.NotFound("account not found")
	}
	stored.ListingURL = acc.ListingURL
	stored.Description = acc.Description
	stored.Price = acc.Price
	return nil
}

func (f *fakeAccountRepo) UpdateSale(_ context.Context, id, buyerID int64, newPassword string) error {
	stored, ok := f.accounts[id]
	if !ok {
		return apierror.NotFound("account not found")
	}
	stored.Status = model.AccountSold
	stored.BuyerID = &buyerID
	stored.Password = newPassword
	return nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.accounts[id]; !ok {
		return apierror.NotFound("account not found")
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeAccountRepo) Close() error { return nil }

var _ repository.AccountRepository = (*fakeAccountRepo)(nil)

// fakeIdentityClient verifies credentials against a fixed map.
type fakeIdentityClient struct {
	credentials map[string]string // username -> password
}

func (f *fakeIdentityClient) GetEmail(_ context.Context, userID int64) (string, error) {
	return "", apierror.NotFound("no email")
}

func (f *fakeIdentityClient) ChangePassword(_ context.Context, sessionID, oldPassword, newPassword string) error {
	return nil
}

func (f *fakeIdentityClient) ChangeEmail(_ context.Context, sessionID, newEmail string) error {
	return nil
}

func (f *fakeIdentityClient) CheckCredentials(_ context.Context, username, password string) error {
	if pw, ok := f.credentials[username]; !ok || pw != password {
		return apierror.Upstream("INVALID_CREDENTIALS", "username or password mismatch")
	}
	return nil
}

var _ client.IdentityClient = (*fakeIdentityClient)(nil)

// fakeFundClient tracks balances in memory.
type fakeFundClient struct {
	balances   map[int64]int64
	failAdjust bool
}

func (f *fakeFundClient) GetBalance(_ context.Context, userID int64) (int64, error) {
	return f.balances[userID], nil
}

func (f *fakeFundClient) AdjustBalance(_ context.Context, userID int64, delta int64) (int64, error) {
	if f.failAdjust {
		return 0, apierror.Upstream("PAY_DOWN", "pay service unavailable")
	}
	f.balances[userID] += delta
	return f.balances[userID], nil
}

var _ client.FundClient = (*fakeFundClient)(nil)

// fakeWithdrawalRepo is an in-memory WithdrawalRepository.
type fakeWithdrawalRepo struct {
	withdrawals map[int64]*model.Withdrawal
	nextID      int64
	failCreate  bool
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{withdrawals: make(map[int64]*model.Withdrawal), nextID: 1}
}

func (f *fakeWithdrawalRepo) Create(_ context.Context, w *model.Withdrawal) (*model.Withdrawal, error) {
	if f.failCreate {
		return nil, apierror.PersistenceFailure("insert failed")
	}
	cp := *w
	cp.ID = f.nextID
	cp.RequestedAt = time.Now()
	f.nextID++
	f.withdrawals[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeWithdrawalRepo) GetByID(_ context.Context, id int64) (*model.Withdrawal, error) {
	w, ok := f.withdrawals[id]
	if !ok {
		return nil, apierror.NotFound("withdrawal not found")
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWithdrawalRepo) GetByUser(_ context.Context, userID int64) ([]*model.Withdrawal, error) {
	var out []*model.Withdrawal
	for _, w := range f.withdrawals {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeWithdrawalRepo) GetAll(_ context.Context) ([]*model.Withdrawal, error) {
	var out []*model.Withdrawal
	for _, w := range f.withdrawals {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeWithdrawalRepo) Resolve(_ context.Context, id int64, status model.WithdrawalStatus, reviewerID int64) error {
	w, ok := f.withdrawals[id]
	if !ok {
		return apierror.NotFound("withdrawal not found")
	}
	if w.Status != model.WithdrawalPending {
		return apierror.Conflict("withdrawal already resolved")
	}
	now := time.Now()
	w.Status = status
	w.ReviewerID = &reviewerID
	w.ResolvedAt = &now
	return nil
}

var _ repository.WithdrawalRepository = (*fakeWithdrawalRepo)(nil)

// fakeFinanceRepo is an in-memory FinanceRepository.
type fakeFinanceRepo struct {
	records []*model.FinanceRecord
	nextID  int64
}

func newFakeFinanceRepo() *fakeFinanceRepo {
	return &fakeFinanceRepo{nextID: 1}
}

func (f *fakeFinanceRepo) Create(_ context.Context, rec *model.FinanceRecord) (*model.FinanceRecord, error) {
	cp := *rec
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.nextID++
	f.records = append(f.records, &cp)
	out := cp
	return &out, nil
}

func (f *fakeFinanceRepo) GetByUser(_ context.Context, userID int64) ([]*model.FinanceRecord, error) {
	var out []*model.FinanceRecord
	for _, rec := range f.records {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFinanceRepo) GetAll(_ context.Context) ([]*model.FinanceRecord, error) {
	var out []*model.FinanceRecord
	for _, rec := range f.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeFinanceRepo) Summary(_ context.Context) (*model.FinanceSummary, error) {
	sum := &model.FinanceSummary{}
	for _, rec := range f.records {
		switch rec.Type {
		case model.FinanceDeposit:
			sum.TotalDeposit += rec.Amount
		case model.FinanceWithdraw:
			sum.TotalWithdraw += rec.Amount
		}
	}
	sum.Net = sum.TotalDeposit - sum.TotalWithdraw
	return sum, nil
}

var _ repository.FinanceRepository = (*fakeFinanceRepo)(nil)
