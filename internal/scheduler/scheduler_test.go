package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vnequity/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop()).WithRetry(2, time.Millisecond)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "0 0 * * * *"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}), "duplicate")
	assert.Error(t, s.AddJob(&fakeJob{name: "c", schedule: "every minute"}), "bad schedule")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
}

func TestRunJobSync_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "refresh", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "refresh")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), job.calls.Load())

	history, err := s.GetJobHistory("refresh")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].Attempts)
}

func TestRunJobSync_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "refresh", schedule: "@hourly", failures: 10}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "refresh")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "transient", result.Error)
	assert.Equal(t, int32(3), job.calls.Load())

	stats := s.GetJobStats()["refresh"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
	assert.Equal(t, "transient", stats.LastError)
}

func TestRunJobSync_CancelledContextStopsRetries(t *testing.T) {
	s := New(logger.Nop()).WithRetry(5, time.Hour)
	job := &fakeJob{name: "refresh", schedule: "@hourly", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := s.RunJobSync(ctx, "refresh")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, int32(1), job.calls.Load())
	assert.Equal(t, context.Canceled.Error(), result.Error)
}

func TestRunJob_Unknown(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
	_, err := s.RunJobSync(context.Background(), "missing")
	assert.Error(t, err)
	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.SuccessRate())
	_, ok := h.Last(true)
	assert.False(t, ok)

	for i := 0; i < historySize+5; i++ {
		h.Add(JobResult{JobName: "x", Attempts: i, Success: i%2 == 0})
	}

	recent := h.Recent(historySize + 10)
	require.Len(t, recent, historySize)
	assert.Equal(t, 5, recent[0].Attempts, "oldest five overwritten")
	assert.Equal(t, historySize+4, recent[historySize-1].Attempts)

	last3 := h.Recent(3)
	assert.Equal(t, []int{historySize + 2, historySize + 3, historySize + 4},
		[]int{last3[0].Attempts, last3[1].Attempts, last3[2].Attempts})
	assert.Empty(t, h.Recent(0))

	runs, failures := h.Totals()
	assert.Equal(t, historySize+5, runs, "totals outlive the ring")
	assert.Equal(t, (historySize+5)/2, failures)

	ok3, _ := h.Last(true)
	fail, _ := h.Last(false)
	assert.Equal(t, historySize+4, ok3.Attempts)
	assert.Equal(t, historySize+3, fail.Attempts)
}

type countingJob struct {
	fakeJob
}

func (j *countingJob) Report() map[string]int {
	return map[string]int{"ticker": 42}
}

func TestRunJobSync_RecordsReportedCounts(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{fakeJob{name: "refresh", schedule: "@hourly", failures: 1}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, map[string]int{"ticker": 42}, result.Counts)

	stats := s.GetJobStats()["refresh"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, map[string]int{"ticker": 42}, stats.LastCounts)
	require.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))
	s.Start()
	s.Stop()
}
