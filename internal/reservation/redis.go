package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"hdgstudio-market-api/internal/model"
)

// reserveScript performs the read-check-write in one evaluation on the
// Redis execution engine. A separate GET followed by a SET would admit
// a race window between two concurrent buyers; the script is the sole
// serialization point for a given account key. An absent key is treated
// as ACTIVE and claimed in the same round trip.
var reserveScript = redis.NewScript(`
	local accountJson = redis.call("GET", KEYS[1])
	local buyerId = tonumber(ARGV[1])

	if not accountJson then
		redis.call("SET", KEYS[1], cjson.encode({status = "SOLD", buyerId = buyerId}))
		return 1
	end

	local account = cjson.decode(accountJson)
	if account.status ~= "ACTIVE" then
		return 0
	end

	account.status = "SOLD"
	account.buyerId = buyerId
	redis.call("SET", KEYS[1], cjson.encode(account))
	return 1
`)

var rollbackScript = redis.NewScript(`
	local accountJson = redis.call("GET", KEYS[1])
	if not accountJson then
		return 0
	end

	local account = cjson.decode(accountJson)
	if account.status ~= "SOLD" then
		return 0
	end

	account.status = "ACTIVE"
	account.buyerId = nil
	redis.call("SET", KEYS[1], cjson.encode(account))
	return 1
`)

// syncScript pushes durable state into the store. SOLD overwrites
// unconditionally (durable record wins once the sale is committed);
// ACTIVE only fills a missing key so a reservation held by an in-flight
// saga is never released from outside.
var syncScript = redis.NewScript(`
	if ARGV[1] == "SOLD" then
		redis.call("SET", KEYS[1], cjson.encode({status = "SOLD"}))
		return 1
	end

	if redis.call("EXISTS", KEYS[1]) == 0 then
		redis.call("SET", KEYS[1], cjson.encode({status = "ACTIVE"}))
		return 1
	end
	return 0
`)

// RedisStore implements Store on Redis. Safe for concurrent use by
// multiple orchestrator processes behind a load balancer.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a Redis-backed reservation store.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "hdgstudio:account"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStore) key(accountID int64) string {
	return fmt.Sprintf("%s:%d", s.keyPrefix, accountID)
}

// Reserve atomically claims the account for the buyer.
func (s *RedisStore) Reserve(ctx context.Context, accountID, buyerID int64) (bool, error) {
	result, err := reserveScript.Run(ctx, s.client, []string{s.key(accountID)}, buyerID).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run reserve script: %w", err)
	}
	return result == 1, nil
}

// Rollback releases a held reservation. Safe to call multiple times or
// after a failed Reserve.
func (s *RedisStore) Rollback(ctx context.Context, accountID int64) error {
	released, err := rollbackScript.Run(ctx, s.client, []string{s.key(accountID)}).Int()
	if err != nil {
		return fmt.Errorf("failed to run rollback script: %w", err)
	}
	if released == 1 {
		log.Printf("[ReservationStore] Released reservation for account %d", accountID)
	}
	return nil
}

// Sync pushes durable account status into the store.
func (s *RedisStore) Sync(ctx context.Context, accountID int64, status model.AccountStatus) error {
	_, err := syncScript.Run(ctx, s.client, []string{s.key(accountID)}, string(status)).Int()
	if err != nil {
		return fmt.Errorf("failed to run sync script: %w", err)
	}
	return nil
}

// Get returns the current record, or nil if absent.
func (s *RedisStore) Get(ctx context.Context, accountID int64) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(accountID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse reservation: %w", err)
	}
	return &rec, nil
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
