package service

import (
	"context"
	"log"
	"sync"
	"time"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/repository"
	"hdgstudio-market-api/internal/reservation"
)

// ReconcileConfig holds configuration for the reservation reconciler.
type ReconcileConfig struct {
	// Interval is how often the reconciler runs.
	// Default: 5 minutes
	Interval time.Duration
}

// DefaultReconcileConfig returns default reconciler configuration.
func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		Interval: 5 * time.Minute,
	}
}

// Reconciler periodically pushes durable account state into the
// reservation store, repairing records lost to Redis restarts or
// eviction. Sync never touches an existing ACTIVE record, so a
// purchase in flight keeps its claim.
type Reconciler struct {
	accounts  repository.AccountRepository
	store     reservation.Store
	config    ReconcileConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewReconciler creates a new reservation reconciler.
func NewReconciler(accounts repository.AccountRepository, store reservation.Store, config ReconcileConfig) *Reconciler {
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}

	return &Reconciler{
		accounts: accounts,
		store:    store,
		config:   config,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the reconciler loop.
func (r *Reconciler) Start() {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = true
	r.ticker = time.NewTicker(r.config.Interval)
	r.mu.Unlock()

	log.Printf("[Reconciler] Started - Interval: %v", r.config.Interval)

	// Seed the store once right away so a fresh Redis starts consistent.
	go r.runReconcile()

	go r.run()
}

// run is the main reconcile loop.
func (r *Reconciler) run() {
	for {
		select {
		case <-r.ticker.C:
			r.runReconcile()
		case <-r.stopCh:
			log.Printf("[Reconciler] Stopped")
			return
		}
	}
}

// runReconcile performs one reconciliation pass.
func (r *Reconciler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	synced, err := r.SyncAll(ctx)
	if err != nil {
		log.Printf("[Reconciler] Error during reconciliation: %v", err)
		return
	}

	log.Printf("[Reconciler] Synced %d account reservations", synced)
}

// SyncAll pushes every account's durable status into the reservation
// store and returns how many records were pushed.
func (r *Reconciler) SyncAll(ctx context.Context) (int, error) {
	synced := 0
	for _, status := range []model.AccountStatus{model.AccountActive, model.AccountSold} {
		accs, err := r.accounts.GetByStatus(ctx, status)
		if err != nil {
			return synced, err
		}
		for _, acc := range accs {
			if err := r.store.Sync(ctx, acc.ID, acc.Status); err != nil {
				log.Printf("[Reconciler] Failed to sync account %d: %v", acc.ID, err)
				continue
			}
			synced++
		}
	}
	return synced, nil
}

// Stop stops the reconciler.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.stopCh)
		r.isRunning = false
	})
}
