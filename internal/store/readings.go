package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// CreateReading appends one immutable sensor reading. When the reading
// carries no timestamp the current UTC time is assigned; timestamps supplied
// by the caller (backfill, Kafka ingest) are normalized to UTC.
func (s *Store) CreateReading(ctx context.Context, reading *domain.SensorReading) error {
	if reading.Timestamp.IsZero() {
		reading.Timestamp = domain.Now()
	} else {
		reading.Timestamp = reading.Timestamp.UTC()
	}

	if err := s.db.WithContext(ctx).Create(reading).Error; err != nil {
		return fmt.Errorf("create sensor reading: %w", err)
	}
	return nil
}

// LatestReading returns the most recent reading by timestamp, or
// domain.ErrNotFound when none exist.
func (s *Store) LatestReading(ctx context.Context) (*domain.SensorReading, error) {
	var reading domain.SensorReading
	err := s.db.WithContext(ctx).Order("timestamp DESC").First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest reading: %w", err)
	}
	return &reading, nil
}

// ReadingsForDate returns all readings whose timestamp falls in the UTC day
// window of date, ordered by timestamp. An empty day returns an empty slice,
// not an error.
func (s *Store) ReadingsForDate(ctx context.Context, date time.Time) ([]domain.SensorReading, error) {
	start, end := domain.DayWindow(date)

	var readings []domain.SensorReading
	err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("timestamp ASC").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("query readings for %s: %w", start.Format("2006-01-02"), err)
	}
	return readings, nil
}
