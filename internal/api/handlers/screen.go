package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/export"
	"github.com/wonny/vnequity/internal/metrics"
	"github.com/wonny/vnequity/internal/pipeline"
	"github.com/wonny/vnequity/internal/scoring"
	"github.com/wonny/vnequity/internal/screening"
	"github.com/wonny/vnequity/internal/session"
	"github.com/wonny/vnequity/pkg/logger"
)

// SessionHeader carries the caller's session id
const SessionHeader = "X-Session-ID"

// ScreenHandler runs the screening pipeline over HTTP
type ScreenHandler struct {
	snapshots    Snapshots
	orchestrator *pipeline.Orchestrator
	sessions     *session.Registry
	metrics      *metrics.Registry
	logger       *logger.Logger

	defaultLimit int
	defaultBasis scoring.Basis
}

// NewScreenHandler creates a new screen handler. sessions and reg may be nil.
func NewScreenHandler(
	snapshots Snapshots,
	orchestrator *pipeline.Orchestrator,
	sessions *session.Registry,
	reg *metrics.Registry,
	log *logger.Logger,
) *ScreenHandler {
	return &ScreenHandler{
		snapshots:    snapshots,
		orchestrator: orchestrator,
		sessions:     sessions,
		metrics:      reg,
		logger:       log,
	}
}

// WithDefaults sets the limit and scaling basis used when a request leaves
// them empty
func (h *ScreenHandler) WithDefaults(limit int, basis scoring.Basis) *ScreenHandler {
	h.defaultLimit = limit
	h.defaultBasis = basis
	return h
}

// ScreenRequest is the POST /api/screen body
type ScreenRequest struct {
	// Kind selects the ticker (default) or industry table
	Kind contracts.Kind `json:"kind,omitempty"`
	pipeline.Request
}

// ScreenResponse is the JSON answer of POST /api/screen
type ScreenResponse struct {
	Kind       contracts.Kind        `json:"kind"`
	Spec       string                `json:"spec"`
	Rows       *contracts.Dataset    `json:"rows"`
	Stages     []pipeline.StageCount `json:"stages"`
	Rejected   map[string]int        `json:"rejected,omitempty"`
	Scales     map[string]float64    `json:"scales,omitempty"`
	Warnings   []contracts.Warning   `json:"warnings,omitempty"`
	DurationMs int64                 `json:"duration_ms"`
}

type presetView struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Criteria    []contracts.RangeCriterion `json:"criteria"`
}

// GetPresets returns the configured presets and weight specs
// GET /api/presets
func (h *ScreenHandler) GetPresets(w http.ResponseWriter, r *http.Request) {
	presets := h.orchestrator.Presets()
	views := make([]presetView, 0, len(presets))
	for _, name := range screening.PresetNames(presets) {
		p := presets[name]
		views = append(views, presetView{
			Name:        p.Name,
			Description: screening.Describe(p.Criteria),
			Criteria:    p.Criteria,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"presets": views,
		"specs":   h.orchestrator.Specs(),
	})
}

// Screen runs one screening request. ?format=csv|xlsx returns the ranked
// rows as a file instead of JSON.
// POST /api/screen
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Kind == "" {
		req.Kind = contracts.KindTicker
	}
	if req.Kind == contracts.KindMarket {
		respondError(w, http.StatusBadRequest, "kind must be ticker or industry")
		return
	}
	if req.Limit == 0 {
		req.Limit = h.defaultLimit
	}
	if req.Basis == "" {
		req.Basis = h.defaultBasis
	}

	var format export.Format
	if f := r.URL.Query().Get("format"); f != "" {
		parsed, err := export.ParseFormat(strings.ToLower(f))
		if err != nil {
			respondErr(w, err)
			return
		}
		format = parsed
	}

	ctx := r.Context()
	sessionID := r.Header.Get(SessionHeader)
	if sessionID != "" && h.sessions != nil {
		if _, err := h.sessions.Get(ctx, sessionID); err != nil {
			respondErr(w, err)
			return
		}
	}

	ds, err := h.snapshots.Get(ctx, req.Kind)
	if err != nil {
		h.logger.WithError(err).WithField("kind", req.Kind).Error("Failed to load snapshot")
		respondError(w, http.StatusServiceUnavailable, "Snapshot unavailable")
		return
	}

	start := time.Now()
	result, err := h.orchestrator.Run(ctx, ds, req.Request)
	h.record(req.Preset, result, err, time.Since(start))
	if err != nil {
		respondErr(w, err)
		return
	}

	if sessionID != "" && h.sessions != nil {
		h.remember(ctx, sessionID, req.Request)
	}

	if format != "" {
		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("screen_%s.%s", req.Kind, format)))
		if err := export.Write(w, format, result.Dataset, export.Options{}); err != nil {
			h.logger.WithError(err).Error("Failed to write export")
		}
		return
	}

	respondJSON(w, http.StatusOK, ScreenResponse{
		Kind:       req.Kind,
		Spec:       result.Spec,
		Rows:       result.Dataset,
		Stages:     result.Stages,
		Rejected:   result.Rejected,
		Scales:     result.Scales,
		Warnings:   result.Warnings,
		DurationMs: result.Duration.Milliseconds(),
	})
}

func (h *ScreenHandler) record(preset string, result *pipeline.Result, err error, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	if errors.Is(err, screening.ErrUnknownPreset) {
		preset = "unknown"
	}
	returned := 0
	if result != nil {
		returned = result.Dataset.Len()
		for _, warning := range result.Warnings {
			h.metrics.RecordWarning(warning.Code)
		}
	}
	h.metrics.RecordScreen(preset, err, returned, elapsed.Seconds())
}

func (h *ScreenHandler) remember(ctx context.Context, id string, req pipeline.Request) {
	_, err := h.sessions.Update(ctx, id, func(st *session.State) error {
		st.LastRequest = &req
		return nil
	})
	if err != nil {
		h.logger.WithError(err).WithField("session", id).Warn("Failed to store last request")
	}
}
