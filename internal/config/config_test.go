package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv provides the storage settings without which Load fails.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AZURE_STORAGE_ACCOUNT", "teststorage")
	t.Setenv("AZURE_CONTAINER", "bronze")
	t.Setenv("AZURE_ACCOUNT_KEY", "dGVzdC1rZXk=")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://trafikkdata-api.atlas.vegvesen.no/graphql", cfg.APIURL)
	assert.Equal(t, "your.contact@company.no", cfg.ClientContact)
	assert.Equal(t, 60*time.Second, cfg.APITimeout)
	assert.Equal(t, "teststorage", cfg.StorageAccount)
	assert.Equal(t, "bronze", cfg.Container)
	assert.Empty(t, cfg.FrostClientID)
	assert.Equal(t, 30*time.Second, cfg.FrostTimeout)
	assert.Equal(t, time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC), cfg.BackfillStart.Time)
	assert.Empty(t, cfg.VolumeFrom)
	assert.Empty(t, cfg.VolumeTo)
	assert.Equal(t, "+02:00", cfg.TimeOffset)
	assert.Equal(t, 100, cfg.MaxPoints)
	assert.Equal(t, 0.1, cfg.SleepSecs)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "bronze-ingest-runs", cfg.KafkaTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRAFIKKDATA_API", "https://api.example.com/graphql/")
	t.Setenv("X_CLIENT", "data-team@example.com")
	t.Setenv("API_TIMEOUT", "90s")
	t.Setenv("FROST_CLIENT_ID", "  abc-123  ")
	t.Setenv("BACKFILL_START", "2025-01-01")
	t.Setenv("VOLUME_FROM", "2025-01-01T00:00:00+01:00")
	t.Setenv("VOLUME_TO", "2025-01-31T23:59:59+01:00")
	t.Setenv("TIME_OFFSET", "-05:30")
	t.Setenv("MAX_POINTS", "10")
	t.Setenv("RATE_LIMIT_SLEEP_SECS", "0.5")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_COMPLETION_TOPIC", "custom-runs")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/graphql", cfg.APIURL, "trailing slash trimmed")
	assert.Equal(t, "data-team@example.com", cfg.ClientContact)
	assert.Equal(t, 90*time.Second, cfg.APITimeout)
	assert.Equal(t, "abc-123", cfg.FrostClientID, "client id trimmed")
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), cfg.BackfillStart.Time)
	assert.Equal(t, "2025-01-01T00:00:00+01:00", cfg.VolumeFrom)
	assert.Equal(t, "2025-01-31T23:59:59+01:00", cfg.VolumeTo)
	assert.Equal(t, "-05:30", cfg.TimeOffset)
	assert.Equal(t, 10, cfg.MaxPoints)
	assert.Equal(t, 0.5, cfg.SleepSecs)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-runs", cfg.KafkaTopic)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("AZURE_STORAGE_ACCOUNT", "teststorage")
	t.Setenv("AZURE_CONTAINER", "bronze")
	// AZURE_ACCOUNT_KEY deliberately unset.

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_ACCOUNT_KEY")
}

func TestLoad_InvalidBackfillStart(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BACKFILL_START", "20.09.2025")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestLoad_InvalidTimeOffset(t *testing.T) {
	setRequiredEnv(t)

	for _, offset := range []string{"02:00", "+2:00", "CET", "+02"} {
		t.Setenv("TIME_OFFSET", offset)

		_, err := Load()
		assert.Error(t, err, "offset %q", offset)
	}
}

func TestLoad_VolumeWindowMustBePaired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VOLUME_FROM", "2025-01-01T00:00:00+01:00")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VOLUME_FROM and VOLUME_TO")
}

func TestLoad_InvalidMaxPoints(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_POINTS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativeSleep(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LIMIT_SLEEP_SECS", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestRainEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.RainEnabled())

	cfg.FrostClientID = "abc-123"
	assert.True(t, cfg.RainEnabled())
}

func TestNotifierEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.NotifierEnabled())

	cfg.KafkaBrokers = []string{"localhost:9092"}
	assert.True(t, cfg.NotifierEnabled())
}

func TestSleepBetweenPoints(t *testing.T) {
	cfg := &Config{SleepSecs: 0.1}
	assert.Equal(t, 100*time.Millisecond, cfg.SleepBetweenPoints())

	cfg.SleepSecs = 0
	assert.Equal(t, time.Duration(0), cfg.SleepBetweenPoints())
}
