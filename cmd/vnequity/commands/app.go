package commands

import (
	"context"
	"fmt"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/metrics"
	"github.com/wonny/vnequity/internal/pipeline"
	"github.com/wonny/vnequity/internal/screenconfig"
	"github.com/wonny/vnequity/internal/snapshot"
	"github.com/wonny/vnequity/pkg/config"
	"github.com/wonny/vnequity/pkg/database"
	"github.com/wonny/vnequity/pkg/httputil"
	"github.com/wonny/vnequity/pkg/logger"
	"github.com/wonny/vnequity/pkg/objectstore"
	"github.com/wonny/vnequity/pkg/redis"
)

// app holds the wired components shared by the commands
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	redis        *redis.Client
	db           *database.DB
	metrics      *metrics.Registry
	memo         *snapshot.Memo
	store        *snapshot.Store
	screenConfig *screenconfig.Config
	orchestrator *pipeline.Orchestrator
}

// newApp loads configuration and wires the snapshot source, memo layer,
// store and pipeline
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataSource != "" {
		cfg.Data.Source = dataSource
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	if cfg.MetricsEnabled {
		a.metrics = metrics.NewRegistry()
	}

	// 3. Redis memoization (disabled client when REDIS_ENABLED=false)
	a.redis, err = redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-process cache only")
		a.redis = redis.Disabled()
	}

	// 4. Snapshot source
	source, err := a.source(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	if a.metrics != nil {
		source = snapshot.NewMetered(source, a.metrics)
	}
	a.memo = snapshot.NewMemo(source, redis.NewCache(a.redis, "vnequity"), cfg.Data.CacheTTL, log)
	a.store = snapshot.NewStore(a.memo, log)

	// 5. Screening config
	path := cfg.ScreenConfigPath
	if screenConfigFile != "" {
		path = screenConfigFile
	}
	a.screenConfig, err = screenconfig.LoadOrDefault(path)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load screening config: %w", err)
	}
	for _, w := range screenconfig.Warn(a.screenConfig) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Screening config warning")
	}

	a.orchestrator = pipeline.NewOrchestrator(a.screenConfig.PresetMap(), a.screenConfig.SpecMap(), log)

	log.WithFields(map[string]interface{}{
		"source":    source.Name(),
		"config_id": a.screenConfig.Meta.ConfigID,
		"redis":     a.redis.Enabled(),
		"metrics":   a.metrics != nil,
	}).Debug("Application wired")
	return a, nil
}

func (a *app) source(ctx context.Context) (contracts.SnapshotSource, error) {
	switch a.cfg.Data.Source {
	case config.SourceLocal:
		return snapshot.NewLocalSource(a.cfg.Data.Dir), nil
	case config.SourcePostgres:
		db, err := database.New(ctx, a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		return snapshot.NewPostgresSource(db), nil
	case config.SourceS3:
		return snapshot.NewObjectSource(objectstore.NewS3(a.cfg.S3)), nil
	case config.SourceHTTP:
		client := httputil.New(a.log).WithRateLimit(5, 5)
		return snapshot.NewHTTPSource(client, a.cfg.Data.URL), nil
	}
	return nil, fmt.Errorf("unknown data source %q", a.cfg.Data.Source)
}

// table returns one snapshot table
func (a *app) table(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	ds, err := a.store.Get(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", kind, err)
	}
	return ds, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
