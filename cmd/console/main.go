package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/cti-console/cti-console/internal/app"
	"github.com/cti-console/cti-console/internal/dashboard"
	dashboardhttp "github.com/cti-console/cti-console/internal/dashboard/http"
	"github.com/cti-console/cti-console/internal/export"
	exporthttp "github.com/cti-console/cti-console/internal/export/http"
	"github.com/cti-console/cti-console/internal/lookup"
	lookuphttp "github.com/cti-console/cti-console/internal/lookup/http"
	"github.com/cti-console/cti-console/internal/observability"
	"github.com/cti-console/cti-console/internal/platform/cache"
	"github.com/cti-console/cti-console/internal/shared"
	"github.com/cti-console/cti-console/internal/telemetry"
	"github.com/cti-console/cti-console/internal/threatapi"
	"github.com/cti-console/cti-console/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	shutdownTracing, err := telemetry.Init(ctx, cfg.OTelEndpoint, "cti-console", cfg.OTelInsecure)
	if err != nil {
		logger.Error("init tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", slog.Any("error", err))
		}
	}()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "cti_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	client := threatapi.NewClient(cfg.ThreatAPIURL, cfg.ThreatAPITimeout,
		threatapi.WithRecorder(metrics),
		threatapi.WithTracer(otel.Tracer("cti-console/threatapi")),
	)

	poller := dashboard.NewPoller(client, logger, cfg.StatsInterval, metrics)
	panels, err := lookup.NewStore(client, logger, cfg.LookupPanelsMax)
	if err != nil {
		logger.Error("create lookup store", slog.Any("error", err))
		os.Exit(1)
	}
	if err := metrics.TrackLivePanels(panels.Len); err != nil {
		logger.Error("register panel gauge", slog.Any("error", err))
		os.Exit(1)
	}
	trigger := export.NewTrigger(client, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		DashboardHandler: dashboardhttp.NewHandler(logger, poller, templates),
		LookupHandler:    lookuphttp.NewHandler(logger, panels, templates, csrfManager),
		ExportHandler:    exporthttp.NewHandler(logger, trigger, templates, csrfManager),
		Metrics:          metrics,
		Health: func() map[string]string {
			return map[string]string{"stats": string(poller.Snapshot().Outcome)}
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return poller.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("console stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
