package job_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/job"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
)

// --- mocks ---

type mockStore struct {
	mu       sync.Mutex
	readings map[string][]domain.SensorReading
	upserted []domain.DailyPrediction

	readErr   error
	upsertErr error
}

func (m *mockStore) ReadingsForDate(_ context.Context, date time.Time) ([]domain.SensorReading, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readings[date.Format("2006-01-02")], nil
}

func (m *mockStore) UpsertDailyPrediction(_ context.Context, pred *domain.DailyPrediction) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, *pred)
	return nil
}

func (m *mockStore) upserts() []domain.DailyPrediction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DailyPrediction(nil), m.upserted...)
}

type mockClassifier struct {
	label      string
	confidence *float64
	err        error

	calls atomic.Int64
	gate  chan struct{} // when set, Classify blocks until the gate closes
}

func (m *mockClassifier) Classify(_ context.Context, _, _, _, _ float64) (domain.Classification, error) {
	m.calls.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	if m.err != nil {
		return domain.Classification{}, m.err
	}
	return domain.Classification{Label: m.label, Confidence: m.confidence}, nil
}

func floatPtr(v float64) *float64 { return &v }

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newRunner(store *mockStore, cls *mockClassifier) *job.Runner {
	return job.NewRunner(store, cls, slog.Default(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestRun_Completed(t *testing.T) {
	store := &mockStore{readings: map[string][]domain.SensorReading{
		"2024-01-01": {
			{PH: 7.0, TDS: 300, Turbidity: 2.0, Temperature: 24.0},
			{PH: 7.2, TDS: 350, Turbidity: 2.5, Temperature: 25.0},
			{PH: 7.4, TDS: 400, Turbidity: 3.0, Temperature: 26.0},
		},
	}}
	cls := &mockClassifier{label: "Safe", confidence: floatPtr(0.91)}

	res, err := newRunner(store, cls).Run(context.Background(), day("2024-01-01"))
	require.NoError(t, err)

	assert.Equal(t, job.StatusCompleted, res.Status)
	assert.False(t, res.Coalesced)
	assert.NotEmpty(t, res.RunID)
	require.NotNil(t, res.Prediction)

	upserts := store.upserts()
	require.Len(t, upserts, 1)
	pred := upserts[0]
	assert.Equal(t, day("2024-01-01").UTC(), pred.Date)
	assert.InDelta(t, 7.2, pred.AvgPH, 1e-9)
	assert.InDelta(t, 350.0, pred.AvgTDS, 1e-9)
	assert.Equal(t, "Safe", pred.Prediction)
	require.NotNil(t, pred.Confidence)
	assert.InDelta(t, 0.91, *pred.Confidence, 1e-9)
	assert.Equal(t, 3, pred.ReadingCount)
}

func TestRun_SkippedNoData_StoreUntouched(t *testing.T) {
	store := &mockStore{}
	cls := &mockClassifier{label: "Safe"}

	res, err := newRunner(store, cls).Run(context.Background(), day("2024-01-02"))
	require.NoError(t, err)

	assert.Equal(t, job.StatusSkippedNoData, res.Status)
	assert.Nil(t, res.Prediction)
	assert.Empty(t, store.upserts(), "an empty day must not touch the prediction store")
	assert.Zero(t, cls.calls.Load(), "nothing to classify without an aggregate")
}

func TestRun_ClassifierNotLoaded_FailsWithoutWrite(t *testing.T) {
	store := &mockStore{readings: map[string][]domain.SensorReading{
		"2024-01-03": {{PH: 7.0}},
	}}
	cls := &mockClassifier{err: domain.ErrArtifactNotLoaded}

	res, err := newRunner(store, cls).Run(context.Background(), day("2024-01-03"))

	require.ErrorIs(t, err, domain.ErrArtifactNotLoaded)
	assert.Equal(t, job.StatusFailed, res.Status)
	assert.Empty(t, store.upserts(), "a failed run must not write a partial record")
}

func TestRun_ReadFailure(t *testing.T) {
	store := &mockStore{readErr: errors.New("disk gone")}

	res, err := newRunner(store, &mockClassifier{label: "Safe"}).Run(context.Background(), day("2024-01-04"))

	require.Error(t, err)
	assert.Equal(t, job.StatusFailed, res.Status)
}

func TestRun_UpsertFailure(t *testing.T) {
	store := &mockStore{
		readings:  map[string][]domain.SensorReading{"2024-01-05": {{PH: 7.0}}},
		upsertErr: errors.New("constraint violated"),
	}

	res, err := newRunner(store, &mockClassifier{label: "Safe"}).Run(context.Background(), day("2024-01-05"))

	require.Error(t, err)
	assert.Equal(t, job.StatusFailed, res.Status)
}

func TestRun_IdempotentForUnchangedReadings(t *testing.T) {
	store := &mockStore{readings: map[string][]domain.SensorReading{
		"2024-01-06": {{PH: 7.0, TDS: 100, Turbidity: 1, Temperature: 20}, {PH: 7.2, TDS: 120, Turbidity: 2, Temperature: 22}},
	}}
	runner := newRunner(store, &mockClassifier{label: "Safe", confidence: floatPtr(0.8)})

	_, err := runner.Run(context.Background(), day("2024-01-06"))
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), day("2024-01-06"))
	require.NoError(t, err)

	upserts := store.upserts()
	require.Len(t, upserts, 2)
	// Both runs converge on the same record contents for the date.
	upserts[0].ComputedAt = upserts[1].ComputedAt
	assert.Empty(t, cmp.Diff(upserts[0], upserts[1]))
}

func TestRun_NormalizesDateToUTCDay(t *testing.T) {
	store := &mockStore{readings: map[string][]domain.SensorReading{
		"2024-01-07": {{PH: 7.0}},
	}}
	runner := newRunner(store, &mockClassifier{label: "Safe"})

	// Mid-day input resolves to the same calendar day.
	res, err := runner.Run(context.Background(), day("2024-01-07").Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, res.Status)
	assert.Equal(t, day("2024-01-07"), res.Date)
}

func TestRun_ConcurrentTriggersSameDateSingleFlight(t *testing.T) {
	store := &mockStore{readings: map[string][]domain.SensorReading{
		"2024-01-08": {{PH: 7.0}},
	}}
	cls := &mockClassifier{label: "Safe", gate: make(chan struct{})}
	runner := newRunner(store, cls)

	type outcome struct {
		res job.Result
		err error
	}
	results := make(chan outcome, 2)
	trigger := func() {
		res, err := runner.Run(context.Background(), day("2024-01-08"))
		results <- outcome{res, err}
	}

	// First trigger parks inside the classifier, second arrives while the
	// run is still in flight, then both are released.
	go trigger()
	require.Eventually(t, func() bool { return cls.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	go trigger()
	time.Sleep(50 * time.Millisecond)
	close(cls.gate)

	var coalesced int
	for i := 0; i < 2; i++ {
		o := <-results
		require.NoError(t, o.err)
		assert.Equal(t, job.StatusCompleted, o.res.Status)
		if o.res.Coalesced {
			coalesced++
		}
	}

	assert.EqualValues(t, 1, cls.calls.Load(), "only one execution for the date")
	assert.Len(t, store.upserts(), 1, "exactly one write for the date")
	assert.Equal(t, 1, coalesced, "the second trigger attaches to the in-flight run")
}

func TestRun_DifferentDatesRunIndependently(t *testing.T) {
	store := &mockStore{readings: map[string][]domain.SensorReading{
		"2024-01-09": {{PH: 7.0}},
		"2024-01-10": {{PH: 7.1}},
	}}
	runner := newRunner(store, &mockClassifier{label: "Safe"})

	var wg sync.WaitGroup
	for _, d := range []string{"2024-01-09", "2024-01-10"} {
		wg.Add(1)
		go func(d string) {
			defer wg.Done()
			res, err := runner.Run(context.Background(), day(d))
			assert.NoError(t, err)
			assert.Equal(t, job.StatusCompleted, res.Status)
		}(d)
	}
	wg.Wait()

	assert.Len(t, store.upserts(), 2)
}
