package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medstock/backend/internal/bootstrap"
	"github.com/medstock/backend/internal/infrastructure/config"
	"github.com/medstock/backend/internal/infrastructure/logger"
	"github.com/medstock/backend/internal/infrastructure/telemetry"
	"github.com/medstock/backend/internal/interfaces/http/handler"
	"github.com/medstock/backend/internal/interfaces/http/middleware"
	"github.com/medstock/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Medstock Analytics API
//	@version		1.0
//	@description	Warehouse KPIs, quick insights and asynchronous inventory analysis for pharmacy stock.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTLP log export needs a logger of its own before the main one exists
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, logProvider, logger.ParseLevel(cfg.Log.Level))
		if log, err = logger.New(logCfg, otelCore); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting medstock analytics",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:            cfg.Profiling.Enabled,
		ServerAddress:      cfg.Profiling.ServerAddress,
		ApplicationName:    cfg.Telemetry.ServiceName,
		BasicAuthUser:      cfg.Profiling.BasicAuthUser,
		BasicAuthPassword:  cfg.Profiling.BasicAuthPassword,
		ProfileAllocations: cfg.Profiling.ProfileAllocations,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	app, err := bootstrap.New(ctx, cfg, log, meterProvider.Meter("github.com/medstock/backend"))
	if err != nil {
		log.Fatal("Failed to initialize analytics core", zap.Error(err))
	}
	app.Maintenance.Start()

	engine, err := newEngine(cfg, log, app, meterProvider)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	jobsCtx, cancelJobs := context.WithTimeout(shutdownCtx, cfg.Jobs.ShutdownTimeout)
	if err := app.Close(jobsCtx); err != nil {
		log.Error("Error closing analytics core", zap.Error(err))
	}
	cancelJobs()

	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	_ = meterProvider.Shutdown(shutdownCtx)
	_ = tracerProvider.Shutdown(shutdownCtx)
	_ = logProvider.Shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the middleware chain and routes
func newEngine(cfg *config.Config, log *zap.Logger, app *bootstrap.App, meterProvider *telemetry.MeterProvider) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			Enabled:     cfg.Telemetry.Enabled,
			ServiceName: cfg.Telemetry.ServiceName,
		}),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(meterProvider, log),
		middleware.Profiling(),
		middleware.CORS(middleware.CORSFromConfig(cfg.HTTP)),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
	)

	if app.Tokens != nil {
		engine.Use(middleware.JWTAuth(middleware.DefaultJWTConfig(app.Tokens, log)))
	}
	engine.Use(middleware.TracingAttributeInjector())

	if cfg.HTTP.RateLimitRPS > 0 {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)))
	}

	r := router.Setup(engine, router.Handlers{
		Analytics: handler.NewAnalyticsHandler(app.KPIs, app.Insights),
		Analysis:  handler.NewAnalysisHandler(app.Analysis),
		Health:    handler.NewHealthHandler(app.DB, app.Cache, app.Analysis),
		System:    handler.NewSystemHandler(cfg.App.Name, version),
	})
	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.String("description", route.Description),
		)
	}

	return engine, nil
}
