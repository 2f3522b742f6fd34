package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReading(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		reading, err := decodeReading([]byte(`{"ph":7.2,"tds":350.5,"turbidity":2.8,"temperature":25.3,"timestamp":"2024-01-01T09:00:00Z"}`))
		require.NoError(t, err)
		assert.InDelta(t, 7.2, reading.PH, 1e-9)
		assert.InDelta(t, 350.5, reading.TDS, 1e-9)
		assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), reading.Timestamp)
	})

	t.Run("timestamp optional", func(t *testing.T) {
		reading, err := decodeReading([]byte(`{"ph":7.2,"tds":350,"turbidity":2.8,"temperature":25.3}`))
		require.NoError(t, err)
		assert.True(t, reading.Timestamp.IsZero())
	})

	t.Run("zero values accepted", func(t *testing.T) {
		_, err := decodeReading([]byte(`{"ph":0,"tds":0,"turbidity":0,"temperature":0}`))
		assert.NoError(t, err)
	})

	t.Run("missing parameter", func(t *testing.T) {
		_, err := decodeReading([]byte(`{"ph":7.2,"tds":350,"turbidity":2.8}`))
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := decodeReading([]byte(`ph=7.2`))
		assert.Error(t, err)
	})

	t.Run("ph out of range", func(t *testing.T) {
		_, err := decodeReading([]byte(`{"ph":14.5,"tds":350,"turbidity":2.8,"temperature":25.3}`))
		assert.Error(t, err)
	})

	t.Run("negative tds", func(t *testing.T) {
		_, err := decodeReading([]byte(`{"ph":7.0,"tds":-1,"turbidity":2.8,"temperature":25.3}`))
		assert.Error(t, err)
	})
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, 5*time.Second))
	assert.Equal(t, 5*time.Second, nextBackoff(4*time.Second, 5*time.Second))
	assert.Equal(t, 5*time.Second, nextBackoff(5*time.Second, 5*time.Second))
}
