package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Server.RateLimitPerMin)
	assert.Equal(t, time.Hour, cfg.Server.CacheTTL.Std())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, "data/species.db", cfg.Data.SpeciesDB)
	assert.Equal(t, "data/calibration", cfg.Data.CalibrationDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
  rate_limit_per_min: 120
  cache_ttl: 30m
  cors_origins:
    - https://garden.example.com
data:
  species_db: /data/species.db
  calibration_dir: /data/calibration
  biocontrol_file: /data/biocontrol.yaml
redis:
  addr: "redis:6379"
  db: 2
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 120, cfg.Server.RateLimitPerMin)
	assert.Equal(t, 30*time.Minute, cfg.Server.CacheTTL.Std())
	assert.Equal(t, []string{"https://garden.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/data/species.db", cfg.Data.SpeciesDB)
	assert.Equal(t, "/data/biocontrol.yaml", cfg.Data.BiocontrolFile)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GUILDSCORE_ADDR", ":7070")
	t.Setenv("GUILDSCORE_RATE_LIMIT_PER_MIN", "240")
	t.Setenv("GUILDSCORE_CACHE_TTL", "5m")
	t.Setenv("GUILDSCORE_SPECIES_DB", "/override/species.db")
	t.Setenv("GUILDSCORE_REDIS_ADDR", "override:6379")
	t.Setenv("GUILDSCORE_LOG_LEVEL", "warn")
	t.Setenv("GUILDSCORE_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 240, cfg.Server.RateLimitPerMin)
	assert.Equal(t, 5*time.Minute, cfg.Server.CacheTTL.Std())
	assert.Equal(t, "/override/species.db", cfg.Data.SpeciesDB)
	assert.Equal(t, "override:6379", cfg.Redis.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv("GUILDSCORE_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty addr", "server:\n  addr: \"\"\n"},
		{"zero rate limit", "server:\n  rate_limit_per_min: -1\n"},
		{"empty species db", "data:\n  species_db: \"\"\n"},
		{"empty calibration dir", "data:\n  calibration_dir: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
