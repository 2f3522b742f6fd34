// Package domain models water-quality sensor data and its daily reduction.
//
// # Data Source
//
// Readings originate from field probes (typically ESP32-based units) that
// sample four parameters and push one reading every few hours, either over
// HTTP or through the optional Kafka ingest topic:
//
//	ph          acidity index, dimensionless, 0–14
//	tds         total dissolved solids, ppm
//	turbidity   nephelometric turbidity units (NTU)
//	temperature degrees Celsius
//
// Readings are append-only. Once stored they are never updated or deleted;
// daily summaries are derived from them and can always be recomputed.
//
// # Day boundaries
//
// All timestamps are stored and compared in UTC. A calendar day D covers the
// half-open window [D 00:00:00Z, D+1 00:00:00Z). Probe clocks and the
// scheduler's notion of "yesterday" are anchored to the same reference, so
// aggregation windows never shift with the host's local offset. See
// [DayWindow] and [DayOf].
//
// # Daily reduction
//
// [Aggregate] reduces one day's readings to the arithmetic mean of each
// parameter plus the count of readings used. An empty day is a defined
// no-data signal, not an error: the daily job skips the date and leaves any
// previously stored prediction untouched.
//
// # Risk classification
//
// The [Classifier] port scores a day's aggregate into a label drawn from the
// fixed class set of a frozen, pre-trained artifact (see the classifier
// package). Confidence, when the artifact supports probability estimates, is
// the probability mass of the winning class in [0,1]; otherwise it is absent,
// never zero.
package domain
