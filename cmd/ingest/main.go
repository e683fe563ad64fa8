// Command ingest runs one bronze ingest pass: registration points, traffic
// volumes, and (when a Frost credential is configured) daily precipitation.
// Scheduling and retries of whole runs belong to the external workflow
// scheduler; this binary does a single run and exits.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/blob"
	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/frost"
	httpadapter "github.com/mathusivas/Traffic-vs-weather/internal/adapter/http"
	kafkaadapter "github.com/mathusivas/Traffic-vs-weather/internal/adapter/kafka"
	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/trafikk"
	"github.com/mathusivas/Traffic-vs-weather/internal/config"
	"github.com/mathusivas/Traffic-vs-weather/internal/observability"
	"github.com/mathusivas/Traffic-vs-weather/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := blob.NewClient(cfg.StorageAccount, cfg.Container, cfg.AccountKey, logger)
	if err != nil {
		logger.Error("failed to create blob client", "error", err)
		os.Exit(1)
	}

	traffic := trafikk.NewClient(cfg.APIURL, cfg.ClientContact, cfg.APITimeout, logger)

	var weather pipeline.WeatherAPI
	if cfg.RainEnabled() {
		weather = frost.NewClient(cfg.FrostClientID, cfg.FrostTimeout, logger)
		logger.Info("rain stage enabled")
	} else {
		logger.Info("rain stage disabled: FROST_CLIENT_ID not set")
	}

	points := pipeline.NewPoints(traffic, store, cfg, logger, metrics)
	volumes := pipeline.NewVolumes(traffic, store, cfg, logger, metrics)
	rain := pipeline.NewRain(weather, store, cfg, logger, metrics)

	var notifier pipeline.Notifier
	var notifierClose func() error
	if cfg.NotifierEnabled() {
		n := kafkaadapter.NewNotifier(cfg, logger)
		notifier = n
		notifierClose = n.Close
		logger.Info("run-completion notifier enabled", "topic", cfg.KafkaTopic)
	}

	runner := pipeline.NewRunner(points, volumes, rain, notifier, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := runner.Run(ctx)
	if runErr != nil {
		logger.Error("ingest run failed", "error", runErr)
	} else {
		logger.Info("ingest run complete")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if notifierClose != nil {
		if err := notifierClose(); err != nil {
			logger.Error("notifier close error", "error", err)
		}
	}

	if runErr != nil {
		os.Exit(1)
	}
}
