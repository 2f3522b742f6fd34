package domain

import (
	"context"
	"time"
)

// DailyPrediction is the stored summary for one calendar date: the day's
// aggregate means, the classifier's label, and the count of readings used.
// Date carries a unique index so the schema, not application lookups,
// enforces at-most-one-row-per-date.
type DailyPrediction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Date           time.Time `gorm:"column:date;uniqueIndex;not null" json:"date"`
	AvgPH          float64   `gorm:"column:avg_ph;not null" json:"avg_ph"`
	AvgTDS         float64   `gorm:"column:avg_tds;not null" json:"avg_tds"`
	AvgTurbidity   float64   `gorm:"column:avg_turbidity;not null" json:"avg_turbidity"`
	AvgTemperature float64   `gorm:"column:avg_temperature;not null" json:"avg_temperature"`
	Prediction     string    `gorm:"column:prediction;not null" json:"prediction"`
	Confidence     *float64  `gorm:"column:confidence" json:"confidence"`
	ReadingCount   int       `gorm:"column:reading_count;not null" json:"reading_count"`
	ComputedAt     time.Time `gorm:"column:computed_at;not null" json:"computed_at"`
}

// TableName keeps the table name stable regardless of struct renames.
func (DailyPrediction) TableName() string { return "daily_predictions" }

// Classification is the outcome of scoring one aggregate. Confidence is nil
// when the artifact provides no probability estimate, never zero-as-missing.
type Classification struct {
	Label      string
	Confidence *float64
}

// Classifier scores a day's aggregate means into a risk label. The artifact
// behind it is frozen and loaded before first use; calling an unloaded
// implementation returns ErrArtifactNotLoaded.
type Classifier interface {
	Classify(ctx context.Context, ph, tds, turbidity, temperature float64) (Classification, error)
}
