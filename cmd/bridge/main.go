package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/V4T54L/eventbridge/internal/adapter/eventsource"
	"github.com/V4T54L/eventbridge/internal/adapter/metrics"
	"github.com/V4T54L/eventbridge/internal/adapter/pii"
	"github.com/V4T54L/eventbridge/internal/adapter/repository/memory"
	"github.com/V4T54L/eventbridge/internal/adapter/sink"
	"github.com/V4T54L/eventbridge/internal/pkg/config"
	"github.com/V4T54L/eventbridge/internal/pkg/logger"
	"github.com/V4T54L/eventbridge/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	minLevel, err := cfg.MinLevel()
	if err != nil {
		logger.Error("invalid bridge level", "error", err)
		os.Exit(1)
	}

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Start Metrics Server ---
	m := metrics.NewBridgeMetrics(prometheus.DefaultRegisterer)

	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/health", healthHandler)
	adminServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           adminMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	// --- Initialize Bridge ---
	bridgeLogger := logger.With("category", "eventbridge")
	bridge, err := usecase.NewEventBridge(
		eventsource.NewListener(logger),
		sink.NewSlogSink(bridgeLogger),
		pii.NewRegistry(cfg.PIIRedactionFields, logger),
		memory.NewSettingsRepository(),
		m,
		logger,
	)
	if err != nil {
		logger.Error("failed to create event bridge", "error", err)
		os.Exit(1)
	}

	echo, err := newEchoSource()
	if err != nil {
		logger.Error("failed to create echo source", "error", err)
		os.Exit(1)
	}
	if err := bridge.EnableEvents(echo, minLevel); err != nil {
		logger.Error("failed to enable echo events", "error", err)
		os.Exit(1)
	}

	// --- Produce Sample Events ---
	go runEcho(ctx, echo, cfg.SampleInterval, logger)

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down...")

	if err := bridge.Dispose(); err != nil {
		logger.Error("event bridge dispose failed", "error", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}

	logger.Info("shut down gracefully")
}

// runEcho writes one echo event per interval; every fourth call is an EchoMore.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func runEcho(ctx context.Context, echo *echoSource, interval time.Duration, logger *slog.Logger) {
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for c := 0; ; c++ {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		if _, err := echo.emit(c); err != nil {
			logger.Warn("failed to write echo event", "error", err)
		}
	}
}
