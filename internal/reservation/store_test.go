package reservation

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdgstudio-market-api/internal/model"
)

// setupRedisStore creates a miniredis-backed store for testing.
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, "test:account")
}

// stores runs the same assertions against both backends.
func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"redis":  setupRedisStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestReserve_AbsentKeyIsClaimable(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			won, err := store.Reserve(ctx, 1, 42)
			require.NoError(t, err)
			assert.True(t, won)

			rec, err := store.Get(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, model.AccountSold, rec.Status)
			require.NotNil(t, rec.BuyerID)
			assert.Equal(t, int64(42), *rec.BuyerID)
		})
	}
}

func TestReserve_SecondBuyerLoses(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			won, err := store.Reserve(ctx, 1, 42)
			require.NoError(t, err)
			require.True(t, won)

			won, err = store.Reserve(ctx, 1, 43)
			require.NoError(t, err)
			assert.False(t, won, "second buyer must lose the race")

			// Loser's attempt must not mutate the record.
			rec, err := store.Get(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, rec.BuyerID)
			assert.Equal(t, int64(42), *rec.BuyerID)
		})
	}
}

func TestRollback_Idempotent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			won, err := store.Reserve(ctx, 1, 42)
			require.NoError(t, err)
			require.True(t, won)

			require.NoError(t, store.Rollback(ctx, 1))
			require.NoError(t, store.Rollback(ctx, 1))

			rec, err := store.Get(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, model.AccountActive, rec.Status)
			assert.Nil(t, rec.BuyerID)
		})
	}
}

func TestRollback_AbsentKeyIsNoop(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Rollback(ctx, 99))

			rec, err := store.Get(ctx, 99)
			require.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestReserve_AfterRollbackSucceeds(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			won, err := store.Reserve(ctx, 1, 42)
			require.NoError(t, err)
			require.True(t, won)

			require.NoError(t, store.Rollback(ctx, 1))

			won, err = store.Reserve(ctx, 1, 43)
			require.NoError(t, err)
			assert.True(t, won)

			rec, err := store.Get(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, rec.BuyerID)
			assert.Equal(t, int64(43), *rec.BuyerID)
		})
	}
}

func TestReserve_ConcurrentBuyersExactlyOneWins(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const buyers = 20

			var wg sync.WaitGroup
			var wins int32
			var mu sync.Mutex

			for i := 0; i < buyers; i++ {
				wg.Add(1)
				go func(buyerID int64) {
					defer wg.Done()
					won, err := store.Reserve(ctx, 7, buyerID)
					assert.NoError(t, err)
					if won {
						mu.Lock()
						wins++
						mu.Unlock()
					}
				}(int64(i + 1))
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins, "exactly one buyer must win")
		})
	}
}

func TestSync_SoldOverwrites(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Sync(ctx, 1, model.AccountSold))

			won, err := store.Reserve(ctx, 1, 42)
			require.NoError(t, err)
			assert.False(t, won, "synced SOLD account must not be reservable")
		})
	}
}

func TestSync_ActiveDoesNotReleaseHeldReservation(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			won, err := store.Reserve(ctx, 1, 42)
			require.NoError(t, err)
			require.True(t, won)

			// Reconciliation with a stale ACTIVE durable row must not
			// strip the in-flight claim.
			require.NoError(t, store.Sync(ctx, 1, model.AccountActive))

			rec, err := store.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, model.AccountSold, rec.Status)
		})
	}
}

func TestSync_ActiveSeedsMissingRecord(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Sync(ctx, 5, model.AccountActive))

			rec, err := store.Get(ctx, 5)
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, model.AccountActive, rec.Status)
		})
	}
}
