package jobs

import (
	"context"
	"sync"

	"github.com/wonny/vnequity/internal/metrics"
	"github.com/wonny/vnequity/pkg/logger"
)

// Sweeper drops idle sessions
type Sweeper interface {
	Sweep() int
	Len() int
}

// IdleSweeper drops state that has been idle too long
type IdleSweeper interface {
	Sweep() int
}

// SessionSweepJob expires idle API sessions and any other idle per-client
// state registered with WithSweepers
type SessionSweepJob struct {
	sessions Sweeper
	extra    []IdleSweeper
	metrics  *metrics.Registry
	logger   *logger.Logger

	mu   sync.Mutex
	last map[string]int
}

// NewSessionSweepJob creates a new session sweep job. reg may be nil.
func NewSessionSweepJob(sessions Sweeper, reg *metrics.Registry, log *logger.Logger) *SessionSweepJob {
	return &SessionSweepJob{
		sessions: sessions,
		metrics:  reg,
		logger:   log,
	}
}

// WithSweepers adds idle state swept on the same schedule
func (j *SessionSweepJob) WithSweepers(sweepers ...IdleSweeper) *SessionSweepJob {
	j.extra = append(j.extra, sweepers...)
	return j
}

// Name returns the job name
func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *SessionSweepJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run drops expired sessions and idle per-client state
func (j *SessionSweepJob) Run(ctx context.Context) error {
	removed := j.sessions.Sweep()
	if j.metrics != nil {
		j.metrics.SetSessionsActive(j.sessions.Len())
	}

	evicted := 0
	for _, s := range j.extra {
		evicted += s.Sweep()
	}

	j.mu.Lock()
	j.last = map[string]int{"sessions_removed": removed, "limiters_evicted": evicted}
	j.mu.Unlock()

	if removed > 0 || evicted > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"evicted": evicted,
		}).Info("Session sweep completed")
	}
	return nil
}

// Report returns what the last run removed
func (j *SessionSweepJob) Report() map[string]int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return map[string]int{
		"sessions_removed": j.last["sessions_removed"],
		"limiters_evicted": j.last["limiters_evicted"],
	}
}
