package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DedupConfig holds the defaults for duplicate searches.
type DedupConfig struct {
	// AppSource is the data origin this deployment's own app writes.
	AppSource        string `yaml:"app_source"`
	ThresholdMinutes int    `yaml:"threshold_minutes"`
}

// KafkaConfig enables event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix WORKOUTKIT_ and underscore-separated paths:
//
//	WORKOUTKIT_SERVER_HOST, WORKOUTKIT_SERVER_PORT,
//	WORKOUTKIT_DB_HOST, WORKOUTKIT_DB_PORT, WORKOUTKIT_DB_NAME,
//	WORKOUTKIT_DB_USER, WORKOUTKIT_DB_PASSWORD, WORKOUTKIT_DB_SSLMODE,
//	WORKOUTKIT_AUTH_API_KEY,
//	WORKOUTKIT_DEDUP_APP_SOURCE, WORKOUTKIT_DEDUP_THRESHOLD_MINUTES,
//	WORKOUTKIT_KAFKA_BROKERS (comma separated), WORKOUTKIT_KAFKA_TOPIC
//
// An absent dedup.threshold_minutes defaults to 5; an explicit 0 selects
// exact matches.
func Load(path string) (*Config, error) {
	cfg := &Config{Dedup: DedupConfig{ThresholdMinutes: 5}}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORKOUTKIT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WORKOUTKIT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WORKOUTKIT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("WORKOUTKIT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("WORKOUTKIT_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("WORKOUTKIT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("WORKOUTKIT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("WORKOUTKIT_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("WORKOUTKIT_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("WORKOUTKIT_DEDUP_APP_SOURCE"); v != "" {
		cfg.Dedup.AppSource = v
	}
	if v := os.Getenv("WORKOUTKIT_DEDUP_THRESHOLD_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dedup.ThresholdMinutes = n
		}
	}
	if v := os.Getenv("WORKOUTKIT_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("WORKOUTKIT_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Dedup.AppSource == "" {
		cfg.Dedup.AppSource = "workoutkit"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "workout_events"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "workoutkit"
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Dedup.ThresholdMinutes < 0 {
		return fmt.Errorf("dedup.threshold_minutes must not be negative")
	}
	return nil
}
