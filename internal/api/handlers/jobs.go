package handlers

import (
	"net/http"

	"github.com/wonny/vnequity/internal/scheduler"
)

// JobStatser reports scheduled job statistics
type JobStatser interface {
	GetJobStats() map[string]scheduler.JobStats
}

// JobsHandler serves scheduler status
type JobsHandler struct {
	scheduler JobStatser
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(s JobStatser) *JobsHandler {
	return &JobsHandler{scheduler: s}
}

// GetJobs returns per-job run statistics
// GET /api/jobs
func (h *JobsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.GetJobStats())
}
