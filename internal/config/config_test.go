package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "ENV", "STORAGE", "DB_DSN", "HTTP_ADDR", "TELEGRAM_TOKEN",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "DISPATCH_INTERVAL", "DISPATCH_BATCH",
		"SLOT_GENERATION_INTERVAL", "SLOT_WEEKS_AHEAD", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsRequireDSNForPostgres(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DBDSN")
}

func TestLoadMemoryStorage(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", StorageMemory)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.DispatchInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "donorsaathi.yaml")
	content := "env: production\n" +
		"storage: postgres\n" +
		"db_dsn: postgres://file/db\n" +
		"http_addr: \":9000\"\n" +
		"dispatch_interval: 1m\n" +
		"dispatch_batch: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DISPATCH_BATCH", "25")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://file/db", cfg.DBDSN)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, time.Minute, cfg.DispatchInterval)
	assert.Equal(t, 25, cfg.DispatchBatch)
	assert.InDelta(t, 0.5, cfg.RateLimitRPS, 1e-9)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown storage", env: map[string]string{"STORAGE": "redis"}},
		{name: "bad duration", env: map[string]string{"STORAGE": "memory", "DISPATCH_INTERVAL": "soon"}},
		{name: "interval too short", env: map[string]string{"STORAGE": "memory", "DISPATCH_INTERVAL": "10ms"}},
		{name: "batch out of range", env: map[string]string{"STORAGE": "memory", "DISPATCH_BATCH": "0"}},
		{name: "unknown env", env: map[string]string{"STORAGE": "memory", "ENV": "staging"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
