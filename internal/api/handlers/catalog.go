package handlers

import (
	"net/http"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/pkg/logger"
)

// CatalogHandler serves the metric catalog
type CatalogHandler struct {
	logger *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{logger: log}
}

type catalogGroup struct {
	Group   catalog.Group    `json:"group"`
	Metrics []catalog.Metric `json:"metrics"`
}

// GetCatalog returns metrics grouped in display order plus the
// class-specific metric lists
// GET /api/catalog
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	groups := make([]catalogGroup, 0, len(catalog.Groups()))
	for _, g := range catalog.Groups() {
		codes := catalog.GroupMetrics(g)
		if len(codes) == 0 {
			continue
		}
		metrics := make([]catalog.Metric, 0, len(codes))
		for _, code := range codes {
			if m, ok := catalog.Lookup(code); ok {
				metrics = append(metrics, m)
			}
		}
		groups = append(groups, catalogGroup{Group: g, Metrics: metrics})
	}

	classes := make(map[string][]string, len(catalog.Classes()))
	for _, c := range catalog.Classes() {
		classes[c] = catalog.ClassMetrics(c)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"groups":  groups,
		"classes": classes,
	})
}
