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

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Sources.PollInterval)
	assert.Equal(t, 3.0, cfg.Sources.MinMagnitude)
	assert.Equal(t, 7.0, cfg.Severity.SeismicCritica)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.ArchiveAge)
	assert.Equal(t, "0 0 * * *", cfg.Jobs.StatsSchedule)
	assert.Equal(t, 30*time.Minute, cfg.Weather.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SISMOS_MIN_MAGNITUDE", "4.5")
	t.Setenv("SOURCE_POLL_INTERVAL", "10m")
	t.Setenv("FIRMS_API_KEY", "abc123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4.5, cfg.Sources.MinMagnitude)
	assert.Equal(t, 10*time.Minute, cfg.Sources.PollInterval)
	assert.Equal(t, "abc123", cfg.Sources.FIRMSAPIKey)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SERVER_PORT", "99999"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"poll interval too short", "SOURCE_POLL_INTERVAL", "10s"},
		{"inverted seismic thresholds", "SEVERITY_SEISMIC_CRITICA", "3.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedValueFallsBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Worker.Count)
}
