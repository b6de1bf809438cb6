package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/pkg/apierror"
)

func newSQLiteRepo(t *testing.T) *SQLiteAccountRepository {
	t.Helper()

	repo, err := NewSQLiteAccountRepository(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteAccountRepository_CreateAndGet(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Account{
		Username:    "gamer123",
		Password:    "old-secret",
		ListingURL:  "http://example.com/gamer123",
		Description: "endgame account",
		Price:       1500,
		SellerID:    10,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.AccountActive, created.Status)
	assert.Nil(t, created.BuyerID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "gamer123", got.Username)
	assert.Equal(t, int64(1500), got.Price)

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, apierror.IsCode(err, "NOT_FOUND"))
}

func TestSQLiteAccountRepository_UpdateSale(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Account{
		Username: "gamer123", Password: "old-secret",
		ListingURL: "u", Description: "d", Price: 1500, SellerID: 10,
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSale(ctx, created.ID, 20, "rotated-secret"))

	sold, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountSold, sold.Status)
	require.NotNil(t, sold.BuyerID)
	assert.Equal(t, int64(20), *sold.BuyerID)
	assert.Equal(t, "rotated-secret", sold.Password)
}

func TestSQLiteAccountRepository_RelistSoldUsername(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, &model.Account{
		Username: "gamer123", Password: "old-secret",
		ListingURL: "u", Description: "d", Price: 1500, SellerID: 10,
	})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateSale(ctx, first.ID, 20, "rotated-secret"))

	// The buyer resells the account: same username, new row.
	second, err := repo.Create(ctx, &model.Account{
		Username: "gamer123", Password: "rotated-secret",
		ListingURL: "u2", Description: "d2", Price: 2000, SellerID: 20,
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, model.AccountActive, second.Status)

	// Lookup by username resolves to the newest listing, not the sold one.
	latest, err := repo.GetByUsername(ctx, "gamer123")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, model.AccountActive, latest.Status)

	// Both rows survive: the old one stays a purchase record.
	soldRows, err := repo.GetByBuyer(ctx, 20)
	require.NoError(t, err)
	require.Len(t, soldRows, 1)
	assert.Equal(t, first.ID, soldRows[0].ID)
}

func TestSQLiteAccountRepository_QueriesByStatusSellerBuyer(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, &model.Account{
		Username: "acc-a", Password: "p", ListingURL: "u", Description: "d", Price: 100, SellerID: 10,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Account{
		Username: "acc-b", Password: "p", ListingURL: "u", Description: "d", Price: 200, SellerID: 10,
	})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateSale(ctx, a.ID, 20, "np"))

	active, err := repo.GetByStatus(ctx, model.AccountActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	bySeller, err := repo.GetBySeller(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, bySeller, 2)

	byBuyer, err := repo.GetByBuyer(ctx, 20)
	require.NoError(t, err)
	require.Len(t, byBuyer, 1)
	assert.Equal(t, a.ID, byBuyer[0].ID)
}
