package config

import (
	"errors"
	"fmt"
	"os"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all tool settings, populated from environment variables.
type Config struct {
	LogLevel  string
	LogFormat string

	// TemplateDir holds the blank zone map documents copied by the scaffolder.
	TemplateDir string
	// ProjectsRoot is the parent of every person folder.
	ProjectsRoot string
	// ReferenceFile replaces the embedded lookup tables when set.
	ReferenceFile string

	// Run events are published only when brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string

	MetricsTextfile string
}

// Load reads configuration from the environment, applying defaults where unset.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		TemplateDir:     sharedcfg.EnvOrDefault("TEMPLATE_DIR", "templates"),
		ProjectsRoot:    sharedcfg.EnvOrDefault("PROJECTS_ROOT", "projects"),
		ReferenceFile:   os.Getenv("REFERENCE_FILE"),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "wetgis-runs"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

// RunEventsEnabled reports whether a Kafka publisher should be built.
func (c *Config) RunEventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
