// Package store provides visitor preference and session storage over
// SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/umputun/shade/app/enum"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// PrefInfo holds a stored visitor preference with its timestamps.
// Theme is kept as raw text so listings survive rows written by other
// versions; parsing to enum.Theme happens on the single-visitor read path.
type PrefInfo struct {
	Visitor   string    `db:"visitor" json:"visitor"`
	Theme     string    `db:"theme" json:"theme"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Interface defines visitor preference storage operations.
// Implemented by Store and by the Cached decorator.
type Interface interface {
	Preference(ctx context.Context, visitor string) (enum.Theme, error)
	PreferenceInfo(ctx context.Context, visitor string) (PrefInfo, error)
	SetPreference(ctx context.Context, visitor string, theme enum.Theme) error
	DeletePreference(ctx context.Context, visitor string) error
	List(ctx context.Context) ([]PrefInfo, error)
	PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}

// RWLocker is the locking interface used to serialize database access.
// SQLite gets a real RWMutex (single writer), PostgreSQL a noop.
type RWLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// noopLocker is used for PostgreSQL where the server handles concurrency.
type noopLocker struct{}

func (noopLocker) Lock()    {}
func (noopLocker) Unlock()  {}
func (noopLocker) RLock()   {}
func (noopLocker) RUnlock() {}
