package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/metrics"
	"github.com/wonny/vnequity/internal/session"
	"github.com/wonny/vnequity/internal/snapshot"
	"github.com/wonny/vnequity/pkg/logger"
)

// SessionHandler manages caller sessions and their watchlists
type SessionHandler struct {
	sessions  *session.Registry
	snapshots Snapshots
	metrics   *metrics.Registry
	logger    *logger.Logger
}

// NewSessionHandler creates a new session handler. reg may be nil.
func NewSessionHandler(sessions *session.Registry, snapshots Snapshots, reg *metrics.Registry, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		snapshots: snapshots,
		metrics:   reg,
		logger:    log,
	}
}

func (h *SessionHandler) track() {
	if h.metrics != nil {
		h.metrics.SetSessionsActive(h.sessions.Len())
	}
}

// Create starts a new session
// POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Create(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to create session")
		respondErr(w, err)
		return
	}
	h.track()
	respondJSON(w, http.StatusCreated, st)
}

// Get returns one session
// GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// Delete ends a session
// DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		respondErr(w, err)
		return
	}
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		respondErr(w, err)
		return
	}
	h.track()
	w.WriteHeader(http.StatusNoContent)
}

// Watch adds a symbol to the watchlist
// PUT /api/sessions/{id}/watchlist/{symbol}
func (h *SessionHandler) Watch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	st, err := h.sessions.Update(r.Context(), vars["id"], func(st *session.State) error {
		st.Watch(vars["symbol"])
		return nil
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// Unwatch removes a symbol from the watchlist
// DELETE /api/sessions/{id}/watchlist/{symbol}
func (h *SessionHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	st, err := h.sessions.Update(r.Context(), vars["id"], func(st *session.State) error {
		st.Unwatch(vars["symbol"])
		return nil
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// GetWatchlist returns the latest ticker row of every watched symbol
// GET /api/sessions/{id}/watchlist
func (h *SessionHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}

	ds, err := h.snapshots.Get(r.Context(), contracts.KindTicker)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load ticker snapshot")
		respondError(w, http.StatusServiceUnavailable, "Snapshot unavailable")
		return
	}

	rows := snapshot.Latest(ds.Filter(func(row contracts.MetricRow) bool {
		return st.Watching(row.Entity)
	}))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"watchlist": st.Watchlist,
		"rows":      rows,
	})
}
