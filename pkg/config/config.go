package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session backend identifiers.
const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

type Config struct {
	Env string

	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Log     LogConfig

	Dashboard DashboardConfig
	Exports   ExportsConfig
	Stats     StatsConfig
	Metrics   MetricsConfig
}

// APIConfig locates the remote portal API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig selects where the authenticated session is persisted.
type SessionConfig struct {
	Backend  string
	FilePath string
	RedisKey string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig tunes the in-memory stage projections.
type DashboardConfig struct {
	PageSize int
}

// ExportsConfig controls where rendered stage exports land.
type ExportsConfig struct {
	Dir string
}

// StatsConfig governs the best-effort background statistics refresher.
type StatsConfig struct {
	RefreshRetries int
	RefreshDelay   time.Duration
}

// MetricsConfig exposes the Prometheus exposition endpoint when Addr is
// set; empty means no listener.
type MetricsConfig struct {
	Addr string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 15*time.Second),
	}

	cfg.Session = SessionConfig{
		Backend:  v.GetString("SESSION_BACKEND"),
		FilePath: v.GetString("SESSION_FILE"),
		RedisKey: v.GetString("SESSION_REDIS_KEY"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		PageSize: v.GetInt("PAGE_SIZE"),
	}

	cfg.Exports = ExportsConfig{
		Dir: v.GetString("EXPORT_DIR"),
	}

	cfg.Stats = StatsConfig{
		RefreshRetries: v.GetInt("STATS_REFRESH_RETRIES"),
		RefreshDelay:   parseDuration(v.GetString("STATS_REFRESH_DELAY"), 2*time.Second),
	}

	cfg.Metrics = MetricsConfig{
		Addr: v.GetString("METRICS_ADDR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API_TIMEOUT", "15s")

	v.SetDefault("SESSION_BACKEND", SessionBackendFile)
	v.SetDefault("SESSION_FILE", "./.portal-session.json")
	v.SetDefault("SESSION_REDIS_KEY", "portal:session")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("EXPORT_DIR", "./exports")

	v.SetDefault("STATS_REFRESH_RETRIES", 1)
	v.SetDefault("STATS_REFRESH_DELAY", "2s")

	v.SetDefault("METRICS_ADDR", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
