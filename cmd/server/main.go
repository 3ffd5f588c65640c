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
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wildfire-risk-service/internal/adapter/fems"
	"github.com/couchcryptid/wildfire-risk-service/internal/adapter/firms"
	httpadapter "github.com/couchcryptid/wildfire-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wildfire-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/wildfire-risk-service/internal/aggregator"
	"github.com/couchcryptid/wildfire-risk-service/internal/config"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	"github.com/couchcryptid/wildfire-risk-service/internal/stations"
)

func main() {
	// Optional .env for local development; env vars win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	femsClient := fems.NewClient(cfg.FEMSBaseURL, cfg.FEMSStateID, cfg.FEMSTimeout, clock, metrics, logger)
	firmsClient := firms.NewClient(cfg.FIRMSBaseURL, cfg.FIRMSMapKey, cfg.FIRMSProduct,
		cfg.FIRMSTimeout, cfg.FIRMSCacheTTL, clock, metrics, logger)

	locator := stations.NewLocator(femsClient, cfg.StationCandidates,
		cfg.WeatherLookbackHours, cfg.FuelLookbackDays, metrics, logger)

	// Optional summary sink (feature-flagged via KAFKA_ENABLED).
	var sink aggregator.EventSink
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSummaryTopic, logger)
		sink = publisher
		logger.Info("kafka summary publishing enabled", "topic", cfg.KafkaSummaryTopic)
	} else {
		logger.Info("kafka summary publishing disabled")
	}

	engine := aggregator.New(cfg, locator, firmsClient, sink, clock, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
