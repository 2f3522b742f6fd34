package domain

import "time"

// DailyAggregate holds the per-parameter arithmetic means for one day's
// readings plus the number of readings they were computed from.
type DailyAggregate struct {
	AvgPH          float64
	AvgTDS         float64
	AvgTurbidity   float64
	AvgTemperature float64
	Count          int
}

// Aggregate reduces a day's readings to per-parameter means. The second
// return value is false when the slice is empty: "no data for this date" is a
// defined signal callers treat as a no-op, not a failure.
func Aggregate(readings []SensorReading) (DailyAggregate, bool) {
	if len(readings) == 0 {
		return DailyAggregate{}, false
	}

	var agg DailyAggregate
	for _, r := range readings {
		agg.AvgPH += r.PH
		agg.AvgTDS += r.TDS
		agg.AvgTurbidity += r.Turbidity
		agg.AvgTemperature += r.Temperature
	}
	n := float64(len(readings))
	agg.AvgPH /= n
	agg.AvgTDS /= n
	agg.AvgTurbidity /= n
	agg.AvgTemperature /= n
	agg.Count = len(readings)
	return agg, true
}

// DayOf truncates t to its UTC calendar date (midnight).
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayWindow returns the half-open UTC window [start, end) covering the
// calendar date of t. end is the following midnight, so 23:59:59.999... is
// included without an arbitrary end-of-day cutoff.
func DayWindow(t time.Time) (start, end time.Time) {
	start = DayOf(t)
	return start, start.Add(24 * time.Hour)
}

// Yesterday returns the UTC calendar date before now. The scheduler targets
// it because the current day's readings are still incomplete at the daily
// fire time.
func Yesterday(now time.Time) time.Time {
	return DayOf(now).AddDate(0, 0, -1)
}
