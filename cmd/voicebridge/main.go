package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/archive"
	"github.com/voicebridge/voicebridge/internal/config"
	"github.com/voicebridge/voicebridge/internal/effects"
	"github.com/voicebridge/voicebridge/internal/httpapi"
	"github.com/voicebridge/voicebridge/internal/observability"
	"github.com/voicebridge/voicebridge/internal/routes"
	"github.com/voicebridge/voicebridge/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	recorder := observability.NewPromRecorder(metrics)

	registry, err := routes.NewFromCatalog()
	if err != nil {
		logger.Fatal("route catalog invalid", zap.Error(err))
	}

	ctx := context.Background()
	history, err := archive.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("action archive init failed", zap.Error(err))
	}
	defer history.Close()

	bus := store.New(logger)
	defer bus.Close()

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	timers := effects.NewSessionTimers(bus, logger, cfg.WakeTimeout, cfg.SilenceTimeout)
	defer timers.Close()
	wakeWindow := effects.NewWakeWindow(recorder, logger, cfg.WakeWindow)
	broadcaster := httpapi.NewBroadcaster()

	bus.Subscribe(runCtx, effects.NewTelemetry(recorder))
	bus.Subscribe(runCtx, timers)
	bus.Subscribe(runCtx, effects.NewAlerts(logger, metrics, cfg.ErrorAlertThreshold))
	bus.Subscribe(runCtx, wakeWindow)
	bus.Subscribe(runCtx, broadcaster)
	bus.Subscribe(runCtx, archive.NewSubscriber(history, logger))

	reporter := effects.NewReporter(bus, logger, cfg.ReportInterval)
	go reporter.Run(runCtx)
	go wakeWindow.Run(runCtx, cfg.WakeWindowFlush)

	api := httpapi.New(cfg, bus, registry, broadcaster, history, metrics, logger)
	go api.Run(runCtx)

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}
