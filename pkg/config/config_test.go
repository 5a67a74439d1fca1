package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, SessionBackendFile, cfg.Session.Backend)
	assert.Equal(t, "./.portal-session.json", cfg.Session.FilePath)
	assert.Equal(t, "portal:session", cfg.Session.RedisKey)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Dashboard.PageSize)
	assert.Equal(t, "./exports", cfg.Exports.Dir)
	assert.Equal(t, 1, cfg.Stats.RefreshRetries)
	assert.Equal(t, 2*time.Second, cfg.Stats.RefreshDelay)
	assert.Empty(t, cfg.Metrics.Addr, "exposition listener disabled by default")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("API_BASE_URL", "https://portal.example.com/api/")
	t.Setenv("API_TIMEOUT", "30s")
	t.Setenv("SESSION_BACKEND", SessionBackendRedis)
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("METRICS_ADDR", "127.0.0.1:9190")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "https://portal.example.com/api", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 25, cfg.Dashboard.PageSize)
	assert.Equal(t, "127.0.0.1:9190", cfg.Metrics.Addr)
}

func TestParseDurationFallsBack(t *testing.T) {
	assert.Equal(t, 15*time.Second, parseDuration("", 15*time.Second))
	assert.Equal(t, 15*time.Second, parseDuration("not-a-duration", 15*time.Second))
	assert.Equal(t, time.Minute, parseDuration("1m", 15*time.Second))
}
