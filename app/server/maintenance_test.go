package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/shade/app/server/mocks"
)

func TestRetention_Sweep(t *testing.T) {
	var purged atomic.Int32
	st := &mocks.PrefStoreMock{
		PurgeStaleFunc: func(ctx context.Context, olderThan time.Duration) (int64, error) {
			purged.Add(1)
			return 3, nil
		},
	}

	m := NewRetention(st, RetentionConfig{Interval: 50 * time.Millisecond, MaxAge: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	m.Run(ctx) // blocks until the context expires

	assert.GreaterOrEqual(t, purged.Load(), int32(2), "sweeper should have run several times")
	require.NotEmpty(t, st.PurgeStaleCalls())
	assert.Equal(t, time.Hour, st.PurgeStaleCalls()[0].OlderThan)
}

func TestRetention_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  RetentionConfig
	}{
		{name: "zero interval", cfg: RetentionConfig{Interval: 0, MaxAge: time.Hour}},
		{name: "zero max age", cfg: RetentionConfig{Interval: time.Hour, MaxAge: 0}},
		{name: "both zero", cfg: RetentionConfig{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := &mocks.PrefStoreMock{}
			m := NewRetention(st, tc.cfg)

			// disabled sweeper returns immediately, no need to cancel
			m.Run(context.Background())

			assert.Empty(t, st.PurgeStaleCalls())
		})
	}
}

func TestRetention_SweepError(t *testing.T) {
	st := &mocks.PrefStoreMock{
		PurgeStaleFunc: func(ctx context.Context, olderThan time.Duration) (int64, error) {
			return 0, errors.New("db gone")
		},
	}

	m := NewRetention(st, RetentionConfig{Interval: time.Hour, MaxAge: time.Hour})

	// failed sweep logs and moves on
	m.sweep(t.Context())
	m.sweep(t.Context())

	assert.Len(t, st.PurgeStaleCalls(), 2)
}
