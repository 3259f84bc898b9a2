// Package bootstrap assembles the analytics services from configuration.
// The server and the operator CLI share it so both see the same wiring.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	analysisapp "github.com/medstock/backend/internal/application/analysis"
	analyticsapp "github.com/medstock/backend/internal/application/analytics"
	"github.com/medstock/backend/internal/infrastructure/auth"
	"github.com/medstock/backend/internal/infrastructure/cache"
	"github.com/medstock/backend/internal/infrastructure/config"
	"github.com/medstock/backend/internal/infrastructure/logger"
	"github.com/medstock/backend/internal/infrastructure/persistence"
	"github.com/medstock/backend/internal/infrastructure/reasoning"
	"github.com/medstock/backend/internal/infrastructure/scheduler"
	"github.com/medstock/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// meterName scopes the instruments created by the analytics core
const meterName = "github.com/medstock/backend"

// Maintenance task names
const (
	TaskCacheSweep = "cache-sweep"
	TaskJobCleanup = "job-cleanup"
)

// App holds the wired analytics core
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *persistence.Database
	Cache       cache.Store
	Registry    *scheduler.Registry
	Runner      *scheduler.Runner
	KPIs        *analyticsapp.KPIService
	Insights    *analyticsapp.InsightService
	Analysis    *analysisapp.Service
	Maintenance *scheduler.Maintenance
	Tokens      *auth.TokenService
}

// New opens the database and cache and builds the services on top of them.
// A nil meter records nothing. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, meter metric.Meter) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: log, DB: db}
	if err := app.build(ctx, meter); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	return app, nil
}

// OpenDatabase connects to the configured database with the zap-backed GORM
// logger and, when enabled, otelgorm tracing.
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	dbSystem := "postgresql"
	if cfg.Database.Driver == persistence.DriverSQLite {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:   dbSystem,
		LogFullSQL: cfg.App.Env == "development",
	}, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	// sqlite has no SQL migrations; its schema comes from the models
	if cfg.Database.Driver == persistence.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func (a *App) build(ctx context.Context, meter metric.Meter) error {
	cfg, log := a.Config, a.Logger

	store, err := cache.NewStore(cfg.Cache, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	a.Cache = store

	var metrics *telemetry.AnalyticsMetrics
	if meter != nil {
		instrumented, err := cache.NewInstrumentedStore(store, meter)
		if err != nil {
			return fmt.Errorf("failed to instrument cache: %w", err)
		}
		a.Cache = instrumented
		if metrics, err = telemetry.NewAnalyticsMetrics(meter); err != nil {
			return fmt.Errorf("failed to create analytics metrics: %w", err)
		}
	}

	orders := persistence.NewGormOrderRepository(a.DB.DB)
	consumption := persistence.NewGormConsumptionRepository(a.DB.DB)
	reasoner := reasoning.New(cfg.Reasoning, log.Named("reasoning"))

	a.KPIs = analyticsapp.NewKPIService(orders, consumption, a.Cache, log.Named("kpi"),
		analyticsapp.WithKPITTL(cfg.Cache.KPITTL),
		analyticsapp.WithKPIMetrics(metrics),
	)
	a.Insights = analyticsapp.NewInsightService(reasoner, a.Cache, log.Named("insights"),
		analyticsapp.WithInsightTTL(cfg.Cache.InsightTTL),
		analyticsapp.WithInsightMetrics(metrics),
	)

	a.Registry = scheduler.NewRegistry()
	a.Runner, err = scheduler.NewRunner(scheduler.RunnerConfig{
		StageDelay: cfg.Jobs.StageDelay,
		Timeout:    cfg.Jobs.Timeout,
	}, a.Registry, log.Named("runner"), scheduler.WithRunnerMetrics(metrics))
	if err != nil {
		return fmt.Errorf("failed to create job runner: %w", err)
	}

	a.Analysis = analysisapp.NewService(a.Registry, a.Runner, orders, consumption, a.KPIs, a.Insights, a.Cache,
		log.Named("analysis"),
		analysisapp.WithResultTTL(cfg.Cache.AnalysisTTL),
	)

	a.Maintenance = scheduler.NewMaintenance(log.Named("maintenance"), time.Minute)
	if err := a.Maintenance.Add(TaskCacheSweep, cfg.Cache.SweepSchedule, a.sweepCache); err != nil {
		return err
	}
	if err := a.Maintenance.Add(TaskJobCleanup, cfg.Jobs.CleanupSchedule, a.cleanupJobs); err != nil {
		return err
	}

	if cfg.JWT.Enabled {
		a.Tokens = auth.NewTokenService(cfg.JWT)
	}

	log.Info("Analytics core ready",
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Backend),
		zap.Bool("reasoning", cfg.Reasoning.Enabled()),
		zap.Bool("jwt", cfg.JWT.Enabled),
	)
	return nil
}

func (a *App) sweepCache(ctx context.Context) error {
	removed, err := a.Cache.Sweep(ctx, time.Now())
	if err != nil {
		return err
	}
	if removed > 0 {
		a.Logger.Debug("Swept expired cache entries", zap.Int("removed", removed))
	}
	return nil
}

func (a *App) cleanupJobs(ctx context.Context) error {
	_, err := a.Analysis.Cleanup(ctx, a.Config.Jobs.Retention)
	return err
}

// Close stops background work and releases the cache and database.
// Running analysis jobs are cancelled and marked failed.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Maintenance != nil {
		errs = append(errs, a.Maintenance.Stop(ctx))
	}
	if a.Runner != nil {
		errs = append(errs, a.Runner.Shutdown(ctx))
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
