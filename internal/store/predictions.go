package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// UpsertDailyPrediction inserts the prediction or, when a row for the same
// date already exists, replaces its aggregate fields, label, confidence,
// reading count, and computed-at stamp in place. The conflict target is the
// unique date index, so concurrent upserts for one date converge on a single
// row with the last committed write winning.
func (s *Store) UpsertDailyPrediction(ctx context.Context, pred *domain.DailyPrediction) error {
	pred.Date = domain.DayOf(pred.Date)
	if pred.ComputedAt.IsZero() {
		pred.ComputedAt = domain.Now()
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"avg_ph", "avg_tds", "avg_turbidity", "avg_temperature",
			"prediction", "confidence", "reading_count", "computed_at",
		}),
	}).Create(pred).Error
	if err != nil {
		return fmt.Errorf("upsert daily prediction for %s: %w", pred.Date.Format("2006-01-02"), err)
	}
	return nil
}

// LatestPrediction returns the most recent prediction by date, or
// domain.ErrNotFound when none exist.
func (s *Store) LatestPrediction(ctx context.Context) (*domain.DailyPrediction, error) {
	var pred domain.DailyPrediction
	err := s.db.WithContext(ctx).Order("date DESC").First(&pred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest prediction: %w", err)
	}
	return &pred, nil
}

// PredictionForDate returns the stored prediction for one date, or
// domain.ErrNotFound when no run has completed for it.
func (s *Store) PredictionForDate(ctx context.Context, date time.Time) (*domain.DailyPrediction, error) {
	var pred domain.DailyPrediction
	err := s.db.WithContext(ctx).Where("date = ?", domain.DayOf(date)).First(&pred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query prediction for %s: %w", domain.DayOf(date).Format("2006-01-02"), err)
	}
	return &pred, nil
}
