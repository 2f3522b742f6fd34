package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/water-quality-monitor/internal/adapter/httpapi"
	kafkaadapter "github.com/couchcryptid/water-quality-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/water-quality-monitor/internal/classifier"
	"github.com/couchcryptid/water-quality-monitor/internal/config"
	"github.com/couchcryptid/water-quality-monitor/internal/job"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
	"github.com/couchcryptid/water-quality-monitor/internal/scheduler"
	"github.com/couchcryptid/water-quality-monitor/internal/store"
)

// readiness reports healthy once the database answers and the model is loaded.
type readiness struct {
	store      *store.Store
	classifier *classifier.Service
}

func (r *readiness) CheckReadiness(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if !r.classifier.Loaded() {
		return errors.New("model artifact not loaded")
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// The model artifact is required at startup. A service that cannot
	// classify should fail fast, not limp along skipping predictions.
	model := classifier.New(cfg.ModelPath, logger)
	if err := model.Load(); err != nil {
		logger.Error("failed to load model artifact", "path", cfg.ModelPath, "error", err)
		os.Exit(1)
	}
	metrics.ClassifierLoaded.Set(1)

	runner := job.NewRunner(st, model, logger, metrics)
	sched := scheduler.New(runner, cfg.ScheduleHour, cfg.ScheduleMinute, logger, metrics, clockwork.NewRealClock())

	handlers := httpapi.NewHandlers(st, runner, logger, metrics)
	ready := &readiness{store: st, classifier: model}
	srv := httpapi.NewServer(cfg.HTTPAddr, cfg.CORSOrigins, handlers, ready, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	// Kafka ingestion is feature-flagged; the HTTP API alone is a complete
	// deployment for installations without a broker.
	var consumer *kafkaadapter.Consumer
	if cfg.KafkaEnabled {
		consumer = kafkaadapter.NewConsumer(cfg, st, logger, metrics)
		logger.Info("kafka ingestion enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("kafka consumer error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka ingestion disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("kafka consumer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
