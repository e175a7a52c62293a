// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tuner wires the tuner HTTP service together.
//
// # Description
//
// New builds every component from a config.Config: the bandit and
// optimizer registries, the training controller, Prometheus and
// OpenTelemetry instrumentation, and the Gin router. Run serves HTTP,
// hot-reloads the config file and shuts everything down when its context
// is cancelled.
//
// # Architecture
//
//	┌─────────────┐   ┌──────────────┐   ┌─────────────────────┐
//	│ HTTP (gin)  │──▶│   Handlers   │──▶│ BanditRegistry      │
//	│ RequestID   │   │ spans+metrics│   │ OptimizerRegistry   │
//	│ RateLimiter │   └──────────────┘   │ training.Controller │
//	│ otelgin     │                      └─────────────────────┘
//	└─────────────┘
package tuner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianTune/pkg/logging"
	"github.com/AleutianAI/AleutianTune/services/tuner/config"
	"github.com/AleutianAI/AleutianTune/services/tuner/handlers"
	"github.com/AleutianAI/AleutianTune/services/tuner/middleware"
	"github.com/AleutianAI/AleutianTune/services/tuner/observability"
	"github.com/AleutianAI/AleutianTune/services/tuner/optimizer"
	"github.com/AleutianAI/AleutianTune/services/tuner/registry"
	"github.com/AleutianAI/AleutianTune/services/tuner/routes"
	"github.com/AleutianAI/AleutianTune/services/tuner/telemetry"
	"github.com/AleutianAI/AleutianTune/services/tuner/training"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Service Interface
// =============================================================================

// Service is the tuner HTTP service.
//
// # Description
//
// Created by New. Run blocks until ctx is cancelled or the listener
// fails. Router exposes the engine so tests can drive it with httptest
// without binding a port.
//
// # Assumptions
//
//   - Run is called at most once per Service instance.
type Service interface {
	// Run serves HTTP and watches the config file until ctx is done.
	//
	// # Outputs
	//
	//   - error: Non-nil if the listener fails. Cancellation returns nil.
	Run(ctx context.Context) error

	// Router returns the underlying Gin engine.
	Router() *gin.Engine

	// Shutdown stops every training job and flushes telemetry. Run calls it
	// on return; call it directly only when Run was never started.
	Shutdown(ctx context.Context) error
}

// service implements Service.
type service struct {
	config     config.Config
	configPath string
	logger     *logging.Logger

	promRegistry      *prometheus.Registry
	telemetryShutdown func(context.Context) error
	metrics           *observability.TunerMetrics

	bandits    *registry.BanditRegistry
	optimizers *registry.OptimizerRegistry
	training   *training.Controller
	handlers   *handlers.Handlers
	limiter    *middleware.RateLimiter

	router *gin.Engine
}

// =============================================================================
// Constructor
// =============================================================================

// New creates the tuner service.
//
// # Description
//
// Zero-valued config fields take the defaults from config.Default. The
// service owns a private Prometheus registry shared by the tuner metrics
// and the OTel Prometheus exporter, served at GET /metrics.
//
// # Inputs
//
//   - cfg: Service configuration.
//   - configPath: File Run watches for hot reload. Empty disables it.
//   - logger: Root logger. Nil uses logging.Default().
//
// # Outputs
//
//   - Service: Ready to Run.
//   - error: Non-nil if telemetry setup fails.
func New(cfg config.Config, configPath string, logger *logging.Logger) (Service, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &service{
		config:       applyConfigDefaults(cfg),
		configPath:   configPath,
		logger:       logger,
		promRegistry: prometheus.NewRegistry(),
	}

	if err := s.initTelemetry(); err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	s.bandits = registry.NewBanditRegistry(
		registry.WithSeedSource(seedSource(s.config.Bandit.DefaultSeed)),
		registry.WithTrackerWindow(s.config.Bandit.TrackerWindow),
	)
	s.optimizers = registry.NewOptimizerRegistry(nil)
	s.training = training.NewController(training.Config{
		Shell:            s.config.Training.Shell,
		StopTimeout:      s.config.Training.StopTimeout,
		TrackerWindow:    s.config.Bandit.TrackerWindow,
		NormalizerWindow: s.config.Training.NormalizerWindow,
	}, s.bandits, logger.Slog())

	s.handlers = handlers.NewHandlers(s.bandits, s.optimizers, s.training).
		WithMetrics(s.metrics).
		WithOptimizerDefaults(s.config.Optimizer).
		WithWatchInterval(s.config.Server.WatchInterval)
	s.limiter = middleware.NewRateLimiter(s.config.Server.RateLimitRPS, s.config.Server.RateLimitBurst)

	if err := s.initRouter(); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	logger.Info("Tuner service initialized",
		"port", s.config.Server.Port,
		"trace_exporter", s.config.Telemetry.TraceExporter,
		"metric_exporter", s.config.Telemetry.MetricExporter)
	return s, nil
}

// applyConfigDefaults fills zero-valued fields from config.Default.
func applyConfigDefaults(cfg config.Config) config.Config {
	def := config.Default()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.GinMode == "" {
		cfg.Server.GinMode = def.Server.GinMode
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = def.Server.RateLimitBurst
	}
	if cfg.Server.WatchInterval <= 0 {
		cfg.Server.WatchInterval = def.Server.WatchInterval
	}
	if cfg.Bandit.TrackerWindow < 1 {
		cfg.Bandit.TrackerWindow = def.Bandit.TrackerWindow
	}
	if cfg.Optimizer == (optimizer.Params{}) {
		cfg.Optimizer = def.Optimizer
	}
	if cfg.Training.Shell == "" {
		cfg.Training.Shell = def.Training.Shell
	}
	if cfg.Training.StopTimeout <= 0 {
		cfg.Training.StopTimeout = def.Training.StopTimeout
	}
	if cfg.Training.NormalizerWindow < 1 {
		cfg.Training.NormalizerWindow = def.Training.NormalizerWindow
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
	if cfg.Telemetry.TraceExporter == "" {
		cfg.Telemetry.TraceExporter = def.Telemetry.TraceExporter
	}
	if cfg.Telemetry.MetricExporter == "" {
		cfg.Telemetry.MetricExporter = def.Telemetry.MetricExporter
	}
	if cfg.Telemetry.OTLPEndpoint == "" {
		cfg.Telemetry.OTLPEndpoint = def.Telemetry.OTLPEndpoint
	}
	return cfg
}

// seedSource returns a constant seed, or a clock-derived one when seed is 0.
func seedSource(seed int64) func() int64 {
	if seed != 0 {
		return func() int64 { return seed }
	}
	return func() int64 { return time.Now().UnixNano() }
}

// =============================================================================
// Initialization
// =============================================================================

func (s *service) initTelemetry() error {
	s.promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = observability.NewTunerMetrics(s.promRegistry)

	tcfg := telemetry.Config{
		ServiceName:    s.config.Telemetry.ServiceName,
		ServiceVersion: handlers.ServiceVersion,
		TraceExporter:  s.config.Telemetry.TraceExporter,
		MetricExporter: s.config.Telemetry.MetricExporter,
		OTLPEndpoint:   s.config.Telemetry.OTLPEndpoint,
	}
	shutdown, err := telemetry.Init(context.Background(), tcfg, s.promRegistry)
	if err != nil {
		return err
	}
	s.telemetryShutdown = shutdown
	return nil
}

// initRouter builds the Gin engine and registers every route.
func (s *service) initRouter() error {
	gin.SetMode(s.config.Server.GinMode)

	httpMetrics, err := telemetry.NewHTTPMetrics(otel.Meter(telemetry.TracerName))
	if err != nil {
		return err
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		otelgin.Middleware(s.config.Telemetry.ServiceName),
		httpMetrics.GinMiddleware(),
	)

	routes.RegisterSystemRoutes(router, s.handlers,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{Registry: s.promRegistry}))

	v1 := router.Group("/v1")
	v1.Use(s.limiter.Middleware())
	routes.RegisterRoutes(v1, s.handlers)

	s.router = router
	return nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run serves HTTP and watches the config file until ctx is done.
//
// # Description
//
// The listener and the config watcher run in one errgroup. Cancelling ctx
// shuts the listener down gracefully within Server.ShutdownTimeout and
// then stops all training jobs. A config reload applies the log level
// immediately; other settings need a restart.
func (s *service) Run(ctx context.Context) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(closeCtx); err != nil {
			s.logger.Warn("Cleanup error", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting tuner server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down tuner server")
		return srv.Shutdown(shutdownCtx)
	})

	if s.configPath != "" {
		g.Go(func() error {
			return config.Watch(gCtx, s.configPath, s.applyReload)
		})
	}

	return g.Wait()
}

// applyReload applies the hot-reloadable subset of a new config.
func (s *service) applyReload(cfg config.Config) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		s.logger.Warn("Ignoring reloaded log level", "error", err)
		return
	}
	s.logger.SetLevel(level)
	s.logger.Info("Configuration reloaded", "log_level", level.String())
}

// Router returns the underlying Gin engine.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Shutdown stops all training jobs and flushes telemetry.
func (s *service) Shutdown(ctx context.Context) error {
	var errs []error
	if s.training != nil {
		if err := s.training.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.telemetryShutdown != nil {
		if err := s.telemetryShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
		s.telemetryShutdown = nil
	}
	return errors.Join(errs...)
}

// Compile-time interface check
var _ Service = (*service)(nil)
