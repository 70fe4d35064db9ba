package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/vnequity/internal/analysis"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/snapshot"
	"github.com/wonny/vnequity/pkg/logger"
)

// TickerHandler serves ticker lookup and detail analysis
type TickerHandler struct {
	snapshots Snapshots
	analyzer  *analysis.Analyzer
	logger    *logger.Logger
}

// NewTickerHandler creates a new ticker handler
func NewTickerHandler(snapshots Snapshots, analyzer *analysis.Analyzer, log *logger.Logger) *TickerHandler {
	return &TickerHandler{
		snapshots: snapshots,
		analyzer:  analyzer,
		logger:    log,
	}
}

func (h *TickerHandler) tickers(w http.ResponseWriter, r *http.Request) (*contracts.Dataset, bool) {
	ds, err := h.snapshots.Get(r.Context(), contracts.KindTicker)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load ticker snapshot")
		respondError(w, http.StatusServiceUnavailable, "Snapshot unavailable")
		return nil, false
	}
	return ds, true
}

// Search returns tickers whose symbol or name contains q
// GET /api/tickers?q=
func (h *TickerHandler) Search(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.tickers(w, r)
	if !ok {
		return
	}

	q := r.URL.Query().Get("q")
	var symbols []string
	if q == "" {
		symbols = snapshot.Latest(ds).Entities()
	} else {
		symbols = snapshot.Search(ds, q)
	}

	infos := make([]snapshot.Info, 0, len(symbols))
	for _, s := range symbols {
		if info, found := snapshot.TickerInfo(ds, s); found {
			infos = append(infos, info)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"count":   len(infos),
		"tickers": infos,
	})
}

// GetAnalysis returns the detail view of one ticker
// GET /api/tickers/{symbol}/analysis
func (h *TickerHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	ds, ok := h.tickers(w, r)
	if !ok {
		return
	}

	a, err := h.analyzer.Analyze(ds, symbol)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// GetPeriods returns the periods of a table, newest first
// GET /api/periods?kind=ticker
func (h *TickerHandler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	kind := contracts.Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = contracts.KindTicker
	}
	if !kind.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown snapshot kind")
		return
	}

	ds, err := h.snapshots.Get(r.Context(), kind)
	if err != nil {
		h.logger.WithError(err).WithField("kind", kind).Error("Failed to load snapshot")
		respondError(w, http.StatusServiceUnavailable, "Snapshot unavailable")
		return
	}

	periods := snapshot.Periods(ds)
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = p.String()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"kind":    kind,
		"periods": out,
	})
}

// GetIndustries returns the distinct industries and CAL_GROUP classes of
// the ticker table
// GET /api/industries
func (h *TickerHandler) GetIndustries(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.tickers(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"industries": snapshot.Industries(ds),
		"groups":     snapshot.Groups(ds),
	})
}
