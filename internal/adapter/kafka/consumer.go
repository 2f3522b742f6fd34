// Package kafka ingests sensor readings from a Kafka topic. Probes behind a
// gateway publish the same JSON payload the HTTP ingestion endpoint accepts;
// this adapter is the second, feature-flagged mouth of the same pipeline.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/water-quality-monitor/internal/config"
	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
)

// ReadingWriter appends readings to durable storage.
type ReadingWriter interface {
	CreateReading(ctx context.Context, reading *domain.SensorReading) error
}

// Consumer reads sensor readings from the configured topic and stores them.
type Consumer struct {
	reader  *kafkago.Reader
	store   ReadingWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewConsumer creates a Kafka consumer for the configured readings topic.
func NewConsumer(cfg *config.Config, store ReadingWriter, logger *slog.Logger, metrics *observability.Metrics) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.KafkaTopic,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: 0, // explicit commits only
	})
	return &Consumer{reader: reader, store: store, logger: logger, metrics: metrics}
}

// Run consumes until the context is cancelled. Malformed messages are
// counted, logged, and committed so one bad probe payload cannot wedge the
// partition; storage failures are retried with backoff without committing.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("kafka ingest started", "topic", c.reader.Config().Topic)

	// Exponential backoff for storage outages: start at 200ms, double each
	// retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("kafka ingest stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("fetch message failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		reading, err := decodeReading(msg.Value)
		if err != nil {
			c.metrics.IngestErrors.WithLabelValues("kafka").Inc()
			c.logger.Warn("malformed reading, skipping message",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			c.commit(ctx, msg)
			continue
		}
		if reading.Timestamp.IsZero() {
			reading.Timestamp = msg.Time.UTC()
		}

		if err := c.store.CreateReading(ctx, &reading); err != nil {
			c.metrics.IngestErrors.WithLabelValues("kafka").Inc()
			c.logger.Error("store reading failed", "error", err, "offset", msg.Offset)
			// Not committed: the message is redelivered once storage recovers.
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = 200 * time.Millisecond
		c.metrics.ReadingsIngested.WithLabelValues("kafka").Inc()
		c.commit(ctx, msg)
	}
}

// Close releases the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warn("commit offset failed", "error", err,
			"partition", msg.Partition, "offset", msg.Offset)
	}
}

// readingPayload mirrors the HTTP ingestion payload. Pointer fields
// distinguish missing parameters from legitimate zeros.
type readingPayload struct {
	PH          *float64   `json:"ph"`
	TDS         *float64   `json:"tds"`
	Turbidity   *float64   `json:"turbidity"`
	Temperature *float64   `json:"temperature"`
	Timestamp   *time.Time `json:"timestamp"`
}

// decodeReading parses and validates one message payload.
func decodeReading(value []byte) (domain.SensorReading, error) {
	var p readingPayload
	if err := json.Unmarshal(value, &p); err != nil {
		return domain.SensorReading{}, fmt.Errorf("parse reading: %w", err)
	}
	if p.PH == nil || p.TDS == nil || p.Turbidity == nil || p.Temperature == nil {
		return domain.SensorReading{}, fmt.Errorf("reading is missing required parameters")
	}
	if *p.PH < 0 || *p.PH > 14 {
		return domain.SensorReading{}, fmt.Errorf("ph %v outside [0,14]", *p.PH)
	}
	if *p.TDS < 0 || *p.Turbidity < 0 {
		return domain.SensorReading{}, fmt.Errorf("negative tds or turbidity")
	}

	reading := domain.SensorReading{
		PH:          *p.PH,
		TDS:         *p.TDS,
		Turbidity:   *p.Turbidity,
		Temperature: *p.Temperature,
	}
	if p.Timestamp != nil {
		reading.Timestamp = p.Timestamp.UTC()
	}
	return reading, nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
