package server

import (
	"context"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
)

// RetentionConfig holds settings for the stale preference sweeper.
type RetentionConfig struct {
	Interval time.Duration // how often to sweep
	MaxAge   time.Duration // preferences untouched longer than this are dropped
}

// Retention periodically removes preference records that have not been
// touched for longer than the configured age, keeping the database free
// of visitors who never came back.
type Retention struct {
	store PrefStore
	cfg   RetentionConfig
	wg    sync.WaitGroup
}

// NewRetention creates a new retention sweeper.
func NewRetention(st PrefStore, cfg RetentionConfig) *Retention {
	return &Retention{store: st, cfg: cfg}
}

// Run starts the sweeper and blocks until context is canceled.
// Returns immediately when interval or max age is zero (disabled).
func (m *Retention) Run(ctx context.Context) {
	if m.cfg.Interval <= 0 || m.cfg.MaxAge <= 0 {
		log.Printf("[INFO] retention sweeper disabled")
		return
	}

	log.Printf("[INFO] starting retention sweeper, interval=%v, max age=%v", m.cfg.Interval, m.cfg.MaxAge)

	m.wg.Add(1)
	go m.runSweeper(ctx)

	<-ctx.Done()
	m.wg.Wait()
	log.Printf("[INFO] retention sweeper stopped")
}

// runSweeper purges stale preferences on every tick.
func (m *Retention) runSweeper(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep drops preferences older than the configured max age.
func (m *Retention) sweep(ctx context.Context) {
	deleted, err := m.store.PurgeStale(ctx, m.cfg.MaxAge)
	if err != nil {
		log.Printf("[WARN] failed to purge stale preferences: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[INFO] purged %d stale preferences", deleted)
	}
}
