package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/vnequity/internal/api/handlers"
	"github.com/wonny/vnequity/internal/metrics"
	"github.com/wonny/vnequity/pkg/logger"
)

// Handlers groups the API handlers
type Handlers struct {
	Catalog  *handlers.CatalogHandler
	Screen   *handlers.ScreenHandler
	Tickers  *handlers.TickerHandler
	Sessions *handlers.SessionHandler
	Jobs     *handlers.JobsHandler // optional
}

// RouterOptions holds the optional pieces of the router. A nil Metrics
// disables /metrics, a nil Limiter disables rate limiting.
type RouterOptions struct {
	Metrics *metrics.Registry
	Limiter Limiter
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, opts RouterOptions, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{})).Methods("GET")
	}

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Catalog & presets
	api.HandleFunc("/catalog", h.Catalog.GetCatalog).Methods("GET")
	api.HandleFunc("/presets", h.Screen.GetPresets).Methods("GET")

	// Screening
	api.HandleFunc("/screen", h.Screen.Screen).Methods("POST")

	// Tickers
	api.HandleFunc("/tickers", h.Tickers.Search).Methods("GET")
	api.HandleFunc("/tickers/{symbol}/analysis", h.Tickers.GetAnalysis).Methods("GET")
	api.HandleFunc("/periods", h.Tickers.GetPeriods).Methods("GET")
	api.HandleFunc("/industries", h.Tickers.GetIndustries).Methods("GET")

	// Sessions
	api.HandleFunc("/sessions", h.Sessions.Create).Methods("POST")
	api.HandleFunc("/sessions/{id}", h.Sessions.Get).Methods("GET")
	api.HandleFunc("/sessions/{id}", h.Sessions.Delete).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/watchlist", h.Sessions.GetWatchlist).Methods("GET")
	api.HandleFunc("/sessions/{id}/watchlist/{symbol}", h.Sessions.Watch).Methods("PUT")
	api.HandleFunc("/sessions/{id}/watchlist/{symbol}", h.Sessions.Unwatch).Methods("DELETE")

	// Scheduler
	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.GetJobs).Methods("GET")
	}

	if opts.Limiter != nil {
		api.Use(rateLimitMiddleware(opts.Limiter, opts.Metrics, log))
	}

	// Apply middleware
	if opts.Metrics != nil {
		r.Use(metrics.HTTPMiddleware(opts.Metrics, routeTemplate))
	}
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// routeTemplate labels requests by their mux path template
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tpl
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "vnequity-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
