package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/metrics"
	"github.com/wonny/vnequity/pkg/logger"
)

type fakeCache struct {
	invalidated int
	err         error
}

func (c *fakeCache) Invalidate(_ context.Context, kinds ...contracts.Kind) error {
	c.invalidated++
	return c.err
}

type fakeStore struct {
	loads int
	err   error
	rows  map[contracts.Kind]int
}

func (s *fakeStore) LoadAll(context.Context) error {
	s.loads++
	return s.err
}

func (s *fakeStore) Get(_ context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	rows := make([]contracts.MetricRow, s.rows[kind])
	for i := range rows {
		rows[i] = contracts.MetricRow{
			Entity: string(rune('A' + i)),
			Period: contracts.Period{Year: 2024, Quarter: 2},
			Values: map[string]contracts.Value{},
		}
	}
	return contracts.NewDataset(rows)
}

func TestRefreshJob(t *testing.T) {
	cache := &fakeCache{}
	store := &fakeStore{rows: map[contracts.Kind]int{contracts.KindMarket: 1, contracts.KindIndustry: 3, contracts.KindTicker: 5}}
	job := NewRefreshJob(cache, store, "0 0 * * * *", metrics.NewRegistry(), logger.Nop())
	assert.Empty(t, job.Report())

	assert.Equal(t, "snapshot_refresh", job.Name())
	assert.Equal(t, "0 0 * * * *", job.Schedule())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, cache.invalidated)
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, map[string]int{"market": 1, "industry": 3, "ticker": 5}, job.Report())
}

func TestRefreshJob_Errors(t *testing.T) {
	cache := &fakeCache{err: errors.New("redis down")}
	store := &fakeStore{}
	job := NewRefreshJob(cache, store, "@hourly", nil, logger.Nop())

	assert.ErrorContains(t, job.Run(context.Background()), "invalidate snapshots")
	assert.Equal(t, 0, store.loads, "no reload after failed invalidation")

	cache.err = nil
	store.err = errors.New("s3 timeout")
	assert.ErrorContains(t, job.Run(context.Background()), "reload snapshots")
}

type fakeSessions struct{ n int }

func (s *fakeSessions) Sweep() int {
	removed := s.n
	s.n = 0
	return removed
}

func (s *fakeSessions) Len() int { return s.n }

func TestSessionSweepJob(t *testing.T) {
	sessions := &fakeSessions{n: 4}
	job := NewSessionSweepJob(sessions, metrics.NewRegistry(), logger.Nop())

	assert.Equal(t, "session_sweep", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, sessions.Len())
}

type fakeLimiters struct{ idle int }

func (l *fakeLimiters) Sweep() int {
	removed := l.idle
	l.idle = 0
	return removed
}

func TestSessionSweepJob_ExtraSweepers(t *testing.T) {
	sessions := &fakeSessions{n: 1}
	limiters := &fakeLimiters{idle: 7}
	job := NewSessionSweepJob(sessions, nil, logger.Nop()).WithSweepers(limiters)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, sessions.Len())
	assert.Equal(t, 0, limiters.idle)
	assert.Equal(t, map[string]int{"sessions_removed": 1, "limiters_evicted": 7}, job.Report())
}
