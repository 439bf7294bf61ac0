package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	API     APIConfig
	Sync    SyncConfig
	Session SessionConfig
	Log     LogConfig
	Ops     OpsConfig
	Cache   CacheConfig
	Export  ExportConfig
}

// APIConfig points the console at the complaint-intake service.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SyncConfig tunes the background refresh behaviour of dashboard views.
type SyncConfig struct {
	Interval  time.Duration
	FeedLimit int
}

// SessionConfig locates the persisted login session.
type SessionConfig struct {
	File string
}

type LogConfig struct {
	Level  string
	Format string
}

// OpsConfig gates the watch-mode health/metrics endpoint.
type OpsConfig struct {
	Enabled bool
	Addr    string
}

// CacheConfig controls the optional shared snapshot cache.
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// ExportConfig controls where report and dataset exports are written.
type ExportConfig struct {
	Dir string
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
		if !errors.As(err, &notFound) {
			if _, statErr := os.Stat(".env"); statErr == nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 10*time.Second),
	}

	cfg.Sync = SyncConfig{
		Interval:  parseDuration(v.GetString("SYNC_INTERVAL"), 30*time.Second),
		FeedLimit: v.GetInt("FEED_LIMIT"),
	}
	if cfg.Sync.FeedLimit <= 0 {
		cfg.Sync.FeedLimit = 5
	}

	cfg.Session = SessionConfig{File: v.GetString("SESSION_FILE")}
	if cfg.Session.File == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.Session.File = filepath.Join(home, ".complaint-console", "session.json")
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ops = OpsConfig{
		Enabled: v.GetBool("ENABLE_OPS"),
		Addr:    v.GetString("OPS_ADDR"),
	}

	cfg.Cache = CacheConfig{
		Enabled:  v.GetBool("ENABLE_SHARED_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		TTL:      parseDuration(v.GetString("CACHE_TTL"), time.Minute),
	}

	cfg.Export = ExportConfig{Dir: v.GetString("EXPORT_DIR")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("API_TIMEOUT", "10s")

	v.SetDefault("SYNC_INTERVAL", "30s")
	v.SetDefault("FEED_LIMIT", 5)

	v.SetDefault("SESSION_FILE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("ENABLE_OPS", false)
	v.SetDefault("OPS_ADDR", ":9190")

	v.SetDefault("ENABLE_SHARED_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "1m")

	v.SetDefault("EXPORT_DIR", ".")
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
