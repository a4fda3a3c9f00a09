package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  port: "5432"
  user: test
  password: test
  dbname: test
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.HTTP.RetryMinWait)
	assert.Equal(t, 10*time.Second, cfg.HTTP.RetryMaxWait)
	assert.Equal(t, 20, cfg.HTTP.MaxConns)
	assert.Equal(t, 10, cfg.HTTP.MaxIdleConns)

	assert.Equal(t, "https://iss.moex.com/iss", cfg.Sources.MoexBaseURL)
	assert.Equal(t, "Europe/Moscow", cfg.Scheduler.Timezone)
	assert.True(t, cfg.Scheduler.InitialLoad)

	stocks, ok := cfg.Scheduler.Tasks["stocks"]
	require.True(t, ok)
	assert.Equal(t, 10*time.Minute, stocks.Interval)
	assert.Equal(t, 5*time.Minute, stocks.MisfireGrace)

	candles, ok := cfg.Scheduler.Tasks["stock_candles"]
	require.True(t, ok)
	assert.Equal(t, "34 0 * * *", candles.Cron)
	assert.Equal(t, 2*time.Hour, candles.MisfireGrace)

	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9999"
http:
  retryAttempts: 5
scheduler:
  initialLoad: false
  tasks:
    stocks:
      interval: 1m
      misfireGrace: 30s
kafka:
  brokers:
    - localhost:9092
  topic: test-events
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 5, cfg.HTTP.RetryAttempts)
	assert.False(t, cfg.Scheduler.InitialLoad)
	assert.Equal(t, time.Minute, cfg.Scheduler.Tasks["stocks"].Interval)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "test-events", cfg.Kafka.Topic)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
