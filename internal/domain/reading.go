package domain

import "time"

// SensorReading is one immutable probe observation. The store assigns ID and,
// when Timestamp is zero, the write time.
type SensorReading struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PH          float64   `gorm:"column:ph;not null" json:"ph"`
	TDS         float64   `gorm:"column:tds;not null" json:"tds"`
	Turbidity   float64   `gorm:"column:turbidity;not null" json:"turbidity"`
	Temperature float64   `gorm:"column:temperature;not null" json:"temperature"`
	Timestamp   time.Time `gorm:"column:timestamp;index;not null" json:"timestamp"`
}

// TableName keeps the table name stable regardless of struct renames.
func (SensorReading) TableName() string { return "sensor_readings" }
