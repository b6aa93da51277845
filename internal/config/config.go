// Package config loads service configuration from an optional YAML file
// with GUILDSCORE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	CORSOrigins     []string `yaml:"cors_origins"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	CacheTTL        Duration `yaml:"cache_ttl"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Duration wraps time.Duration so YAML values can be written in the
// usual "30m" / "10s" form.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DataConfig points at the reference data the scorer loads at start.
type DataConfig struct {
	SpeciesDB      string `yaml:"species_db"`
	CalibrationDir string `yaml:"calibration_dir"`
	BiocontrolFile string `yaml:"biocontrol_file"`
}

// RedisConfig enables the distributed rate limiter when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the local-development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitPerMin: 60,
			CacheTTL:        Duration(time.Hour),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Data: DataConfig{
			SpeciesDB:      "data/species.db",
			CalibrationDir: "data/calibration",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file when path is non-empty, then applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "GUILDSCORE_ADDR")
	setInt(&c.Server.RateLimitPerMin, "GUILDSCORE_RATE_LIMIT_PER_MIN")
	setDuration(&c.Server.CacheTTL, "GUILDSCORE_CACHE_TTL")
	setString(&c.Data.SpeciesDB, "GUILDSCORE_SPECIES_DB")
	setString(&c.Data.CalibrationDir, "GUILDSCORE_CALIBRATION_DIR")
	setString(&c.Data.BiocontrolFile, "GUILDSCORE_BIOCONTROL_FILE")
	setString(&c.Redis.Addr, "GUILDSCORE_REDIS_ADDR")
	setString(&c.Redis.Password, "GUILDSCORE_REDIS_PASSWORD")
	setInt(&c.Redis.DB, "GUILDSCORE_REDIS_DB")
	setString(&c.Logging.Level, "GUILDSCORE_LOG_LEVEL")

	if origins := os.Getenv("GUILDSCORE_CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitAndTrim(origins)
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.RateLimitPerMin <= 0 {
		return fmt.Errorf("server.rate_limit_per_min must be positive")
	}
	if c.Data.SpeciesDB == "" {
		return fmt.Errorf("data.species_db must not be empty")
	}
	if c.Data.CalibrationDir == "" {
		return fmt.Errorf("data.calibration_dir must not be empty")
	}
	return nil
}

func setString(dest *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dest = v
	}
}

func setInt(dest *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dest = n
		}
	}
}

func setDuration(dest *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dest = Duration(d)
		}
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
