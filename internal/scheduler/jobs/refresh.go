package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/metrics"
	"github.com/wonny/vnequity/pkg/logger"
)

// Invalidator drops cached snapshot tables
type Invalidator interface {
	Invalidate(ctx context.Context, kinds ...contracts.Kind) error
}

// Loader preloads every snapshot table
type Loader interface {
	LoadAll(ctx context.Context) error
	Get(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error)
}

// RefreshJob invalidates the snapshot cache and reloads every table so the
// next screening request sees fresh quarterly data
type RefreshJob struct {
	cache    Invalidator
	store    Loader
	metrics  *metrics.Registry
	schedule string
	logger   *logger.Logger

	mu   sync.Mutex
	rows map[string]int
}

// NewRefreshJob creates a refresh job. reg may be nil.
func NewRefreshJob(cache Invalidator, store Loader, schedule string, reg *metrics.Registry, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		cache:    cache,
		store:    store,
		metrics:  reg,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "snapshot_refresh"
}

// Schedule returns the configured cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run invalidates and reloads snapshots
func (j *RefreshJob) Run(ctx context.Context) error {
	err := j.run(ctx)
	if j.metrics != nil {
		j.metrics.RecordRefresh(err)
	}
	return err
}

func (j *RefreshJob) run(ctx context.Context) error {
	if err := j.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate snapshots: %w", err)
	}
	if err := j.store.LoadAll(ctx); err != nil {
		return fmt.Errorf("reload snapshots: %w", err)
	}

	rows := make(map[string]int, len(contracts.AllKinds()))
	fields := make(map[string]interface{}, len(rows))
	for _, kind := range contracts.AllKinds() {
		ds, err := j.store.Get(ctx, kind)
		if err != nil {
			return fmt.Errorf("read %s snapshot: %w", kind, err)
		}
		rows[string(kind)] = ds.Len()
		fields[string(kind)] = ds.Len()
	}

	j.mu.Lock()
	j.rows = rows
	j.mu.Unlock()

	j.logger.WithFields(fields).Info("Snapshot refresh completed")
	return nil
}

// Report returns rows loaded per snapshot table by the last successful run
func (j *RefreshJob) Report() map[string]int {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make(map[string]int, len(j.rows))
	for k, v := range j.rows {
		out[k] = v
	}
	return out
}
