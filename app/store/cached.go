package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lcw/v2"

	"github.com/umputun/shade/app/enum"
)

// Cached wraps a store Interface with a loading cache and satisfies the
// Interface itself. Cache is populated on preference reads via loader
// function, invalidated on writes. Listing and purging bypass the cache.
type Cached struct {
	store Interface
	cache lcw.LoadingCache[enum.Theme]
}

// NewCached creates a new cached store wrapper.
// maxKeys sets the maximum number of entries in the cache.
func NewCached(store Interface, maxKeys int) (*Cached, error) {
	cache, err := lcw.NewLruCache(lcw.NewOpts[enum.Theme]().MaxKeys(maxKeys))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cached{store: store, cache: cache}, nil
}

// Preference retrieves the theme for a visitor, using cache with load-through.
func (c *Cached) Preference(ctx context.Context, visitor string) (enum.Theme, error) {
	theme, err := c.cache.Get(visitor, func() (enum.Theme, error) {
		stored, loadErr := c.store.Preference(ctx, visitor)
		if loadErr != nil {
			// don't wrap - let caller check error type directly (ErrNotFound, parse errors)
			return enum.Theme{}, loadErr //nolint:wrapcheck // intentionally pass through for error type checks
		}
		return stored, nil
	})
	if err != nil {
		return enum.Theme{}, err //nolint:wrapcheck // loader error passed through
	}
	return theme, nil
}

// PreferenceInfo retrieves the full stored record from the underlying store.
// Not cached, the record carries timestamps that change on every write.
func (c *Cached) PreferenceInfo(ctx context.Context, visitor string) (PrefInfo, error) {
	info, err := c.store.PreferenceInfo(ctx, visitor)
	if err != nil {
		// don't wrap - let caller check for ErrNotFound
		return PrefInfo{}, err //nolint:wrapcheck // intentionally pass through for error type checks
	}
	return info, nil
}

// SetPreference stores the theme and invalidates the cache entry.
func (c *Cached) SetPreference(ctx context.Context, visitor string, theme enum.Theme) error {
	if err := c.store.SetPreference(ctx, visitor, theme); err != nil {
		return fmt.Errorf("store set: %w", err)
	}
	c.cache.Invalidate(func(k string) bool { return k == visitor })
	return nil
}

// DeletePreference removes the stored preference and invalidates the cache entry.
func (c *Cached) DeletePreference(ctx context.Context, visitor string) error {
	// invalidate regardless of error - the visitor might have been cached
	c.cache.Invalidate(func(k string) bool { return k == visitor })
	if err := c.store.DeletePreference(ctx, visitor); err != nil {
		// don't wrap - let caller check for ErrNotFound
		return err //nolint:wrapcheck // intentionally pass through for error type checks
	}
	return nil
}

// List returns all stored preferences from the underlying store (not cached).
func (c *Cached) List(ctx context.Context) ([]PrefInfo, error) {
	prefs, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store list: %w", err)
	}
	return prefs, nil
}

// PurgeStale deletes stale preferences and drops all cached entries,
// the purged set is not known per-visitor.
func (c *Cached) PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	deleted, err := c.store.PurgeStale(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("store purge: %w", err)
	}
	if deleted > 0 {
		c.cache.Purge()
	}
	return deleted, nil
}

// Close closes the cache and underlying store.
func (c *Cached) Close() error {
	_ = c.cache.Close()
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	return nil
}

// Stats returns cache statistics.
func (c *Cached) Stats() lcw.CacheStat {
	return c.cache.Stat()
}
