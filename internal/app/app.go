package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"vcfo/internal/config"
	"vcfo/internal/errors"
	"vcfo/internal/infrastructure"
	customMiddleware "vcfo/internal/middleware"
	"vcfo/internal/report"
	"vcfo/internal/services"
	"vcfo/internal/store"
	handlers "vcfo/internal/transport/http"
	ws "vcfo/internal/websocket"
)

const (
	AppName = "vcfo - Virtual CFO Dashboard"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Store         store.RecordStore
	WebSocketHub  *ws.Hub
	ErrorHandler  *errors.ErrorHandler
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Ingest    *services.IngestService
	Dashboard *services.DashboardService
	Export    *services.ExportService
	Health    *services.HealthService
}

// NewApplication loads configuration from the environment and wires the
// application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewWithConfig(cfg, logger)
}

// NewWithConfig wires the application around an already loaded config
func NewWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.String("store_backend", cfg.Ingest.StoreBackend))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  errors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices creates the record store, the websocket hub and the
// services on top of them
func (a *Application) initializeServices() error {
	recordStore, err := store.New(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create record store: %w", err)
	}
	a.Store = recordStore

	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)

	renderer := report.NewChromeRenderer(a.Config.Report, a.Logger)

	a.Services = &ServiceContainer{
		Ingest:    services.NewIngestService(recordStore, a.WebSocketHub, a.Metrics, a.Config.Ingest, a.Logger),
		Dashboard: services.NewDashboardService(recordStore, a.Metrics, a.Config.Ingest, a.Logger),
		Export:    services.NewExportService(recordStore, renderer, a.Metrics, a.Config.Ingest, a.Logger),
		Health:    services.NewHealthService(recordStore, a.Config.Ingest.StoreBackend, a.WebSocketHub, a.Logger),
	}

	a.Logger.Info("Services initialized",
		slog.String("store_backend", a.Config.Ingest.StoreBackend),
		slog.String("data_dir", a.Config.GetDataDir()))
	return nil
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that does not wrap the ResponseWriter, so the
	// websocket upgrade keeps working
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	// CORS answers preflights before routing, so it sits outside the group
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	validator := customMiddleware.NewRequestValidator(a.Logger, a.ErrorHandler)

	r.With(
		customMiddleware.WebSocketTraceMiddleware(a.Logger),
		validator.RequireOwner,
	).Handle("/ws/owners/{ownerID}", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(errors.RecoveryMiddleware(a.ErrorHandler))

		headers := customMiddleware.DefaultSecureHeaders()
		headers.DevMode = a.isDevelopmentMode()
		r.Use(headers.Handler)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)

		r.Mount("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.WebSocketHub, a.ErrorHandler).Routes())
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		validator := customMiddleware.NewRequestValidator(a.Logger, a.ErrorHandler)
		ownerHandler := handlers.NewOwnerHandler(
			a.Services.Ingest,
			a.Services.Dashboard,
			a.Services.Export,
			validator,
			a.ErrorHandler,
			a.Logger,
		)

		r.Get("/owners", ownerHandler.ListOwners)

		// Uploads are bounded before any handler reads the body
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.BodyLimit(a.Config.Ingest.MaxUploadBytes, a.ErrorHandler))
			r.Use(customMiddleware.AuditLog(a.Logger))

			r.With(customMiddleware.ContentTypeValidator(a.ErrorHandler, handlers.UploadContentTypes...)).
				Post("/preview", ownerHandler.Preview)
			r.Mount("/owners/{ownerID}", ownerHandler.Routes())
		})
	})
}

// getCORSConfig returns CORS configuration based on environment
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: append([]string(nil), a.Config.Security.AllowedOrigins...),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			customMiddleware.RequestIDHeader,
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	if a.isDevelopmentMode() {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins,
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
		)
		a.Logger.Info("CORS configured for development mode",
			slog.Any("allowed_origins", cfg.AllowedOrigins))
	}

	return cfg
}

// isDevelopmentMode reports whether the telemetry environment marks this
// as a development deployment
func (a *Application) isDevelopmentMode() bool {
	switch strings.ToLower(a.Config.Telemetry.Environment) {
	case "development", "dev", "local":
		return true
	}
	return false
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the websocket hub and the HTTP server. A listen failure
// calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.Store.Ping(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Record store not ready at startup", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled; shutdown gets its own deadline
	stopCtx, stop := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stop()
	return a.Stop(stopCtx)
}
