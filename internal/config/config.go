package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Data sources.
	AVLFeedURL string
	AVLTimeout time.Duration
	RoadwayDB  string

	// Precipitation forecast feature service. Empty disables the
	// severity classification step.
	ForecastURL     string
	ForecastTimeout time.Duration

	// Working and published datasets.
	StoreDB string

	// Optional Kafka snapshot publish for downstream dashboards.
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Dissolve granularity: add route ID/number to the group key.
	FineGrainedDissolve bool

	// Scheduling: a cron expression, or empty to run once and exit.
	RunSchedule string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	avlTimeout, err := parseDuration("AVL_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	forecastTimeout, err := parseDuration("FORECAST_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AVLFeedURL:          os.Getenv("AVL_FEED_URL"),
		AVLTimeout:          avlTimeout,
		RoadwayDB:           envOrDefault("ROADWAY_DB", "roadway.db"),
		ForecastURL:         os.Getenv("FORECAST_URL"),
		ForecastTimeout:     forecastTimeout,
		StoreDB:             envOrDefault("STORE_DB", "telemetry.db"),
		KafkaBrokers:        parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic:      envOrDefault("KAFKA_SINK_TOPIC", "plow-route-density"),
		FineGrainedDissolve: os.Getenv("DISSOLVE_FINE_GRAINED") == "true",
		RunSchedule:         os.Getenv("RUN_SCHEDULE"),
		HTTPAddr:            envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
		LogFormat:           envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:     shutdownTimeout,
	}

	if cfg.AVLFeedURL == "" {
		return nil, errors.New("AVL_FEED_URL is required")
	}
	if cfg.StoreDB == "" {
		return nil, errors.New("STORE_DB is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the snapshot publish step is configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// ForecastEnabled reports whether severity classification is configured.
func (c *Config) ForecastEnabled() bool { return c.ForecastURL != "" }

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
