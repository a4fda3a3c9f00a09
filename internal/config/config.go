package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Sources   SourcesConfig
	HTTP      HTTPClientConfig
	Scheduler SchedulerConfig
	Kafka     KafkaConfig
	Logging   LoggingConfig
}

// ServerConfig holds query-API server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SourcesConfig holds upstream data-provider base URLs
type SourcesConfig struct {
	MoexBaseURL string
	CbrBaseURL  string
}

// HTTPClientConfig holds the fetch-client transport and retry policy
type HTTPClientConfig struct {
	Timeout       time.Duration
	MaxConns      int
	MaxIdleConns  int
	RetryAttempts int
	RetryMinWait  time.Duration
	RetryMaxWait  time.Duration
}

// TaskConfig holds one scheduled task's trigger settings. Either Interval or
// Cron is set, never both.
type TaskConfig struct {
	Interval     time.Duration
	Cron         string
	MisfireGrace time.Duration
}

// SchedulerConfig holds the ingestion scheduler settings
type SchedulerConfig struct {
	InitialLoad bool
	Timezone    string
	Tasks       map[string]TaskConfig
}

// KafkaConfig holds the cycle-event producer settings. An empty broker list
// disables publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Read from environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults; connections recycled hourly to avoid stale sockets
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", "1h")

	// Upstream sources
	v.SetDefault("sources.moexBaseURL", "https://iss.moex.com/iss")
	v.SetDefault("sources.cbrBaseURL", "https://cbr.ru")

	// Fetch client defaults
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.maxConns", 20)
	v.SetDefault("http.maxIdleConns", 10)
	v.SetDefault("http.retryAttempts", 3)
	v.SetDefault("http.retryMinWait", "2s")
	v.SetDefault("http.retryMaxWait", "10s")

	// Scheduler defaults: intraday refreshes on intervals, candle
	// derivations on Moscow-time cron in the minutes after midnight,
	// Tuesday through Saturday so each run covers the previous trading day.
	v.SetDefault("scheduler.initialLoad", true)
	v.SetDefault("scheduler.timezone", "Europe/Moscow")
	v.SetDefault("scheduler.tasks.stocks.interval", "10m")
	v.SetDefault("scheduler.tasks.stocks.misfireGrace", "5m")
	v.SetDefault("scheduler.tasks.bonds.interval", "15m")
	v.SetDefault("scheduler.tasks.bonds.misfireGrace", "5m")
	v.SetDefault("scheduler.tasks.funds_tqtf.interval", "20m")
	v.SetDefault("scheduler.tasks.funds_tqtf.misfireGrace", "10m")
	v.SetDefault("scheduler.tasks.funds_tqif.interval", "30m")
	v.SetDefault("scheduler.tasks.funds_tqif.misfireGrace", "5m")
	v.SetDefault("scheduler.tasks.indices.interval", "30m")
	v.SetDefault("scheduler.tasks.indices.misfireGrace", "15m")
	v.SetDefault("scheduler.tasks.currencies.interval", "1h")
	v.SetDefault("scheduler.tasks.currencies.misfireGrace", "30m")
	v.SetDefault("scheduler.tasks.capitalization.interval", "1h")
	v.SetDefault("scheduler.tasks.capitalization.misfireGrace", "30m")
	v.SetDefault("scheduler.tasks.funds_tqif_candles.cron", "30 0 * * 2-6")
	v.SetDefault("scheduler.tasks.funds_tqif_candles.misfireGrace", "2h")
	v.SetDefault("scheduler.tasks.funds_tqtf_candles.cron", "31 0 * * 2-6")
	v.SetDefault("scheduler.tasks.funds_tqtf_candles.misfireGrace", "2h")
	v.SetDefault("scheduler.tasks.bond_candles.cron", "32 0 * * 2-6")
	v.SetDefault("scheduler.tasks.bond_candles.misfireGrace", "2h")
	v.SetDefault("scheduler.tasks.index_candles.cron", "33 0 * * 2-6")
	v.SetDefault("scheduler.tasks.index_candles.misfireGrace", "2h")
	v.SetDefault("scheduler.tasks.stock_candles.cron", "34 0 * * *")
	v.SetDefault("scheduler.tasks.stock_candles.misfireGrace", "2h")

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "market-data-events")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
