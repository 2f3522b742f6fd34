package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "data/water_quality.db", cfg.DBPath)
	assert.Equal(t, "ml_artifacts/water_quality_forest.json", cfg.ModelPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 0, cfg.ScheduleHour)
	assert.Equal(t, 0, cfg.ScheduleMinute)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "sensor-readings", cfg.KafkaTopic)
	assert.Equal(t, "water-quality-monitor", cfg.KafkaGroupID)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_PATH", "/tmp/wq.db")
	t.Setenv("MODEL_PATH", "/models/forest_v3.json")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CORS_ORIGINS", "https://dash.example.com, https://admin.example.com")
	t.Setenv("SCHEDULE_AT", "02:30")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "probes")
	t.Setenv("KAFKA_GROUP_ID", "wq-dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/wq.db", cfg.DBPath)
	assert.Equal(t, "/models/forest_v3.json", cfg.ModelPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"https://dash.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 2, cfg.ScheduleHour)
	assert.Equal(t, 30, cfg.ScheduleMinute)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "probes", cfg.KafkaTopic)
	assert.Equal(t, "wq-dev", cfg.KafkaGroupID)
}

func TestLoad_InvalidScheduleAt(t *testing.T) {
	for _, bad := range []string{"midnight", "24:00", "12:60", "12", "12:00:00"} {
		t.Run(bad, func(t *testing.T) {
			t.Setenv("SCHEDULE_AT", bad)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-5s")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_KafkaEnabledRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	assert.Error(t, err)
}
