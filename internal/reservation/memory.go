package reservation

import (
	"context"
	"sync"

	"hdgstudio-market-api/internal/model"
)

// MemoryStore is an in-memory implementation of Store.
// Use this for development/testing or single-instance deployments only:
// the mutex serializes reservations within one process, which is not
// enough once orchestrators are replicated behind a load balancer.
type MemoryStore struct {
	mu      sync.Mutex
	records map[int64]*Record
}

// NewMemoryStore creates a new in-memory reservation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]*Record),
	}
}

// Reserve atomically claims the account for the buyer.
func (s *MemoryStore) Reserve(ctx context.Context, accountID, buyerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[accountID]
	if exists && rec.Status != model.AccountActive {
		return false, nil
	}

	id := buyerID
	s.records[accountID] = &Record{
		Status:  model.AccountSold,
		BuyerID: &id,
	}
	return true, nil
}

// Rollback releases a held reservation. Idempotent.
func (s *MemoryStore) Rollback(ctx context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[accountID]
	if !exists || rec.Status != model.AccountSold {
		return nil
	}

	s.records[accountID] = &Record{Status: model.AccountActive}
	return nil
}

// Sync pushes durable account status into the store.
func (s *MemoryStore) Sync(ctx context.Context, accountID int64, status model.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == model.AccountSold {
		s.records[accountID] = &Record{Status: model.AccountSold}
		return nil
	}

	if _, exists := s.records[accountID]; !exists {
		s.records[accountID] = &Record{Status: model.AccountActive}
	}
	return nil
}

// Get returns the current record, or nil if absent.
func (s *MemoryStore) Get(ctx context.Context, accountID int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[accountID]
	if !exists {
		return nil, nil
	}

	out := &Record{Status: rec.Status}
	if rec.BuyerID != nil {
		id := *rec.BuyerID
		out.BuyerID = &id
	}
	return out, nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
