// Package job orchestrates the daily aggregation-and-prediction run: select a
// date's readings, reduce them, score the aggregate, and upsert the dated
// prediction. Scheduled ticks and manual triggers funnel through the same
// Run path, deduplicated per date.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
)

// Store is the persistence surface the runner needs.
type Store interface {
	ReadingsForDate(ctx context.Context, date time.Time) ([]domain.SensorReading, error)
	UpsertDailyPrediction(ctx context.Context, pred *domain.DailyPrediction) error
}

// Status is the terminal state of one run.
type Status string

const (
	StatusCompleted     Status = "completed"
	StatusSkippedNoData Status = "skipped_no_data"
	StatusFailed        Status = "failed"
)

// Result describes one finished run. Coalesced is true for callers that
// attached to a run already in flight for the same date instead of starting
// their own.
type Result struct {
	RunID      string
	Date       time.Time
	Status     Status
	Prediction *domain.DailyPrediction
	Coalesced  bool
}

// Runner executes the daily pipeline. At most one run per target date is in
// flight at any time; concurrent triggers for the same date wait for and
// share the in-flight result.
type Runner struct {
	store      Store
	classifier domain.Classifier
	logger     *slog.Logger
	metrics    *observability.Metrics
	group      singleflight.Group
}

// NewRunner wires the runner's collaborators.
func NewRunner(store Store, classifier domain.Classifier, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		store:      store,
		classifier: classifier,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run executes the pipeline for the UTC calendar day of date. A failed run
// returns the error alongside a Result with StatusFailed; callers decide
// whether that is fatal (the scheduler never treats it as such).
func (r *Runner) Run(ctx context.Context, date time.Time) (Result, error) {
	day := domain.DayOf(date)
	key := day.Format("2006-01-02")

	v, err, shared := r.group.Do(key, func() (any, error) {
		return r.run(ctx, day)
	})

	res, ok := v.(Result)
	if !ok {
		res = Result{Date: day, Status: StatusFailed}
	}
	if shared {
		res.Coalesced = true
		r.metrics.JobCoalesced.Inc()
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, day time.Time) (Result, error) {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "date", day.Format("2006-01-02"))
	start := time.Now()

	res := Result{RunID: runID, Date: day}
	logger.Info("daily prediction run started")

	readings, err := r.store.ReadingsForDate(ctx, day)
	if err != nil {
		return r.fail(logger, res, "query readings", err)
	}

	agg, ok := domain.Aggregate(readings)
	if !ok {
		// No data is a defined skip, not a failure: the store keeps
		// whatever record the date already has.
		res.Status = StatusSkippedNoData
		r.metrics.JobRuns.WithLabelValues(string(StatusSkippedNoData)).Inc()
		logger.Warn("no readings for date, skipping prediction")
		return res, nil
	}

	cls, err := r.classifier.Classify(ctx, agg.AvgPH, agg.AvgTDS, agg.AvgTurbidity, agg.AvgTemperature)
	if err != nil {
		return r.fail(logger, res, "classify aggregate", err)
	}

	pred := &domain.DailyPrediction{
		Date:           day,
		AvgPH:          agg.AvgPH,
		AvgTDS:         agg.AvgTDS,
		AvgTurbidity:   agg.AvgTurbidity,
		AvgTemperature: agg.AvgTemperature,
		Prediction:     cls.Label,
		Confidence:     cls.Confidence,
		ReadingCount:   agg.Count,
		ComputedAt:     domain.Now(),
	}
	if err := r.store.UpsertDailyPrediction(ctx, pred); err != nil {
		return r.fail(logger, res, "upsert prediction", err)
	}

	res.Status = StatusCompleted
	res.Prediction = pred
	r.metrics.JobRuns.WithLabelValues(string(StatusCompleted)).Inc()
	r.metrics.JobDuration.Observe(time.Since(start).Seconds())
	r.metrics.LastCompletedRun.SetToCurrentTime()

	logger.Info("daily prediction run completed",
		"prediction", pred.Prediction,
		"confidence", confidenceAttr(pred.Confidence),
		"reading_count", pred.ReadingCount,
	)
	return res, nil
}

// fail marks the run failed without writing a partial record. The wrapped
// error is returned to the caller; it never escalates to a process crash.
func (r *Runner) fail(logger *slog.Logger, res Result, stage string, err error) (Result, error) {
	res.Status = StatusFailed
	r.metrics.JobRuns.WithLabelValues(string(StatusFailed)).Inc()
	logger.Error("daily prediction run failed", "stage", stage, "error", err)
	return res, fmt.Errorf("%s: %w", stage, err)
}

func confidenceAttr(c *float64) any {
	if c == nil {
		return "n/a"
	}
	return *c
}
