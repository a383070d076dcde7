package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8089", cfg.DrawsAPIURL)
	assert.Empty(t, cfg.DrawsAPIToken)
	assert.Equal(t, time.Duration(0), cfg.DrawsTimeout)
	assert.Equal(t, 5, cfg.RoundID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "draws-artifacts", cfg.KafkaTopic)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DRAWS_API_URL", "https://draws.example.org/api/")
	t.Setenv("DRAWS_API_TOKEN", "secret")
	t.Setenv("DRAWS_TIMEOUT", "90s")
	t.Setenv("GBD_ROUND_ID", "6")
	t.Setenv("LOG_LEVEL", "INFO")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "lbwsg-artifacts")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://draws.example.org/api", cfg.DrawsAPIURL)
	assert.Equal(t, "secret", cfg.DrawsAPIToken)
	assert.Equal(t, 90*time.Second, cfg.DrawsTimeout)
	assert.Equal(t, 6, cfg.RoundID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "lbwsg-artifacts", cfg.KafkaTopic)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
	assert.True(t, cfg.NotificationsEnabled())
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("DRAWS_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DRAWS_TIMEOUT")
}

func TestLoad_NegativeTimeout(t *testing.T) {
	t.Setenv("DRAWS_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DRAWS_TIMEOUT")
}

func TestLoad_InvalidRoundID(t *testing.T) {
	t.Setenv("GBD_ROUND_ID", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GBD_ROUND_ID")
}

func TestLoad_InvalidAPIURL(t *testing.T) {
	t.Setenv("DRAWS_API_URL", "localhost")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DRAWS_API_URL")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "trace")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GBD_ROUND_ID=7\nDRAWS_API_TOKEN=from-file\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("DRAWS_API_TOKEN", "from-env")
	// Register cleanup for the variable the .env file introduces.
	t.Setenv("GBD_ROUND_ID", "")
	require.NoError(t, os.Unsetenv("GBD_ROUND_ID"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.RoundID)
	assert.Equal(t, "from-env", cfg.DrawsAPIToken, "environment wins over .env")
}
