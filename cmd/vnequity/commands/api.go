package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vnequity/internal/analysis"
	"github.com/wonny/vnequity/internal/api"
	"github.com/wonny/vnequity/internal/api/handlers"
	"github.com/wonny/vnequity/internal/scheduler"
	"github.com/wonny/vnequity/internal/scheduler/jobs"
	"github.com/wonny/vnequity/internal/session"
	"github.com/wonny/vnequity/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 스냅샷 선적재 후 HTTP API 서버 시작
- 스냅샷 자동 갱신 (REFRESH_SCHEDULE)
- 유휴 세션 정리

Endpoints:
  GET    /health
  GET    /metrics
  GET    /api/catalog
  GET    /api/presets
  POST   /api/screen[?format=csv|xlsx]
  GET    /api/tickers?q=
  GET    /api/tickers/{symbol}/analysis
  GET    /api/periods?kind=
  GET    /api/industries
  GET    /api/jobs
  POST   /api/sessions
  GET    /api/sessions/{id}
  DELETE /api/sessions/{id}
  GET    /api/sessions/{id}/watchlist
  PUT    /api/sessions/{id}/watchlist/{symbol}
  DELETE /api/sessions/{id}/watchlist/{symbol}

Example:
  go run ./cmd/vnequity api
  go run ./cmd/vnequity api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiNoPreload bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().BoolVar(&apiNoPreload, "no-preload", false, "load snapshots lazily on first request")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== vnequity API Server ===")

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg, log := a.cfg, a.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"source": cfg.Data.Source,
	}).Info("Initializing API server")

	// 1. Preload snapshots
	if !apiNoPreload {
		if err := a.store.LoadAll(ctx); err != nil {
			return fmt.Errorf("preload snapshots: %w", err)
		}
	}

	// 2. Sessions
	sessions := session.NewRegistry(cfg.API.SessionTTL, redis.NewCache(a.redis, "vnequity"), log)

	// 3. Scheduler
	sched := scheduler.New(log).WithRetry(2, 30*time.Second)
	if err := sched.AddJob(jobs.NewRefreshJob(a.memo, a.store, cfg.Data.RefreshSchedule, a.metrics, log)); err != nil {
		return err
	}
	limiter := api.NewLimiter(cfg.API, a.redis)
	sweep := jobs.NewSessionSweepJob(sessions, a.metrics, log)
	if idle, ok := limiter.(jobs.IdleSweeper); ok {
		sweep.WithSweepers(idle)
	}
	if err := sched.AddJob(sweep); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// 4. Handlers
	h := api.Handlers{
		Catalog: handlers.NewCatalogHandler(log),
		Screen: handlers.NewScreenHandler(a.store, a.orchestrator, sessions, a.metrics, log).
			WithDefaults(a.screenConfig.Ranking.DefaultLimit, a.screenConfig.Basis()),
		Tickers:  handlers.NewTickerHandler(a.store, analysis.NewAnalyzer(a.screenConfig.EnrichOptions(), log), log),
		Sessions: handlers.NewSessionHandler(sessions, a.store, a.metrics, log),
		Jobs:     handlers.NewJobsHandler(sched),
	}

	// 5. Router + server
	router := api.NewRouter(h, api.RouterOptions{
		Metrics: a.metrics,
		Limiter: limiter,
	}, log)
	server := api.New(cfg, log, router)

	// 6. Serve until interrupted, then drain in-flight requests
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(runCtx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
