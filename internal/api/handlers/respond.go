package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/vnequity/internal/analysis"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/export"
	"github.com/wonny/vnequity/internal/screening"
	"github.com/wonny/vnequity/internal/session"
)

// Snapshots serves the pre-computed tables
type Snapshots interface {
	Get(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidWeightSpec),
		errors.Is(err, contracts.ErrInvalidCriterion),
		errors.Is(err, contracts.ErrUnknownColumn),
		errors.Is(err, screening.ErrUnknownPreset),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrUnknownTicker),
		errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondErr(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}
