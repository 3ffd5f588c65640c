package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapKey = "abcdef0123456789"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FIRMS_MAP_KEY", testMapKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "https://fems.fs2c.usda.gov/api/climatology/graphql", cfg.FEMSBaseURL)
	assert.Equal(t, 15*time.Second, cfg.FEMSTimeout)
	assert.Equal(t, "NY", cfg.FEMSStateID)

	assert.Equal(t, "https://firms.modaps.eosdis.nasa.gov/api", cfg.FIRMSBaseURL)
	assert.Equal(t, testMapKey, cfg.FIRMSMapKey)
	assert.Equal(t, "VIIRS_SNPP_NRT", cfg.FIRMSProduct)
	assert.Equal(t, 30*time.Second, cfg.FIRMSTimeout)
	assert.Equal(t, 30*time.Minute, cfg.FIRMSCacheTTL)

	assert.Equal(t, time.Hour, cfg.ResultCacheTTL)
	assert.Equal(t, 6, cfg.StationCandidates)
	assert.Equal(t, 24, cfg.WeatherLookbackHours)
	assert.Equal(t, 7, cfg.FuelLookbackDays)
	assert.Equal(t, 1, cfg.FireLookbackDays)
	assert.Equal(t, 8, cfg.PlumeWorkers)

	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("FIRMS_MAP_KEY", testMapKey)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FEMS_STATE_ID", "CA")
	t.Setenv("FIRMS_PRODUCT", "VIIRS_NOAA20_NRT")
	t.Setenv("RESULT_CACHE_TTL", "15m")
	t.Setenv("STATION_CANDIDATES", "3")
	t.Setenv("PLUME_WORKERS", "2")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SUMMARY_TOPIC", "smoke-events")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "CA", cfg.FEMSStateID)
	assert.Equal(t, "VIIRS_NOAA20_NRT", cfg.FIRMSProduct)
	assert.Equal(t, 15*time.Minute, cfg.ResultCacheTTL)
	assert.Equal(t, 3, cfg.StationCandidates)
	assert.Equal(t, 2, cfg.PlumeWorkers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "smoke-events", cfg.KafkaSummaryTopic)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing FIRMS map key", func(t *testing.T) {
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FIRMS_MAP_KEY")
	})

	t.Run("kafka enabled without brokers", func(t *testing.T) {
		t.Setenv("FIRMS_MAP_KEY", testMapKey)
		t.Setenv("KAFKA_ENABLED", "true")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("FIRMS_MAP_KEY", testMapKey)
		t.Setenv("RESULT_CACHE_TTL", "soon")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RESULT_CACHE_TTL")
	})
}
