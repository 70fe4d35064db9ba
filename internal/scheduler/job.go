package scheduler

import (
	"context"
	"time"
)

// Job is one unit of scheduled work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule is a six-field cron expression or a descriptor such as "@hourly"
	Schedule() string
}

// Reporter is implemented by jobs that count what their last run touched,
// e.g. rows reloaded per snapshot table or sessions expired
type Reporter interface {
	Report() map[string]int
}

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string         `json:"job_name"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  time.Duration  `json:"duration"`
	Attempts  int            `json:"attempts"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
}

// historySize bounds the results kept per job
const historySize = 100

// JobHistory keeps the most recent results in a ring plus lifetime totals.
// The zero value is ready to use.
type JobHistory struct {
	ring []JobResult
	next int

	runs     int
	failures int
}

// Add records a result, overwriting the oldest once the ring is full
func (h *JobHistory) Add(r JobResult) {
	if len(h.ring) < historySize {
		h.ring = append(h.ring, r)
	} else {
		h.ring[h.next] = r
	}
	h.next = (h.next + 1) % historySize

	h.runs++
	if !r.Success {
		h.failures++
	}
}

// Recent returns up to n results, oldest first
func (h *JobHistory) Recent(n int) []JobResult {
	if n > len(h.ring) {
		n = len(h.ring)
	}
	out := make([]JobResult, 0, max(n, 0))
	for i := len(h.ring) - n; i < len(h.ring); i++ {
		out = append(out, h.at(i))
	}
	return out
}

// at returns the i-th oldest result in the ring
func (h *JobHistory) at(i int) JobResult {
	if len(h.ring) < historySize {
		return h.ring[i]
	}
	return h.ring[(h.next+i)%historySize]
}

// Last returns the most recent result with the given outcome still in the ring
func (h *JobHistory) Last(success bool) (JobResult, bool) {
	for i := len(h.ring) - 1; i >= 0; i-- {
		if r := h.at(i); r.Success == success {
			return r, true
		}
	}
	return JobResult{}, false
}

// Totals returns lifetime run and failure counts
func (h *JobHistory) Totals() (runs, failures int) {
	return h.runs, h.failures
}

// SuccessRate is the lifetime share of successful runs (0 when never run)
func (h *JobHistory) SuccessRate() float64 {
	if h.runs == 0 {
		return 0
	}
	return float64(h.runs-h.failures) / float64(h.runs)
}
