package config

import (
	"errors"
	"io/fs"
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
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Upstream  UpstreamConfig
	Insights  InsightsConfig
	Snapshots SnapshotConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig points at the admin backend that serves student-detail payloads.
type UpstreamConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// InsightsConfig governs caching and defaults for the student insight endpoints.
type InsightsConfig struct {
	CacheEnabled       bool
	CacheTTL           time.Duration
	Timezone           string
	FeedbackWindowDays int
	Palette            []string
}

// SnapshotConfig controls persistence of fetched payloads used when upstream is down.
type SnapshotConfig struct {
	Enabled       bool
	Retention     time.Duration
	PruneSchedule string
	Workers       int
	MaxRetries    int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Upstream = UpstreamConfig{
		BaseURL: strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Token:   v.GetString("UPSTREAM_TOKEN"),
		Timeout: parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 5*time.Second),
	}

	windowDays := v.GetInt("FEEDBACK_WINDOW_DAYS")
	if windowDays <= 0 {
		windowDays = 30
	}
	cfg.Insights = InsightsConfig{
		CacheEnabled:       v.GetBool("ENABLE_INSIGHT_CACHE"),
		CacheTTL:           parseDuration(v.GetString("INSIGHT_CACHE_TTL"), 5*time.Minute),
		Timezone:           v.GetString("INSIGHT_TIMEZONE"),
		FeedbackWindowDays: windowDays,
		Palette:            splitAndTrim(v.GetString("COLOR_PALETTE")),
	}

	cfg.Snapshots = SnapshotConfig{
		Enabled:       v.GetBool("ENABLE_SNAPSHOTS"),
		Retention:     parseDuration(v.GetString("SNAPSHOT_RETENTION"), 30*24*time.Hour),
		PruneSchedule: v.GetString("SNAPSHOT_PRUNE_SCHEDULE"),
		Workers:       v.GetInt("SNAPSHOT_WORKERS"),
		MaxRetries:    v.GetInt("SNAPSHOT_MAX_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "admin_panel_sma")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:3000/api")
	v.SetDefault("UPSTREAM_TOKEN", "")
	v.SetDefault("UPSTREAM_TIMEOUT", "5s")

	v.SetDefault("ENABLE_INSIGHT_CACHE", false)
	v.SetDefault("INSIGHT_CACHE_TTL", "5m")
	v.SetDefault("INSIGHT_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("FEEDBACK_WINDOW_DAYS", 30)
	v.SetDefault("COLOR_PALETTE", "")

	v.SetDefault("ENABLE_SNAPSHOTS", false)
	v.SetDefault("SNAPSHOT_RETENTION", "720h")
	v.SetDefault("SNAPSHOT_PRUNE_SCHEDULE", "@hourly")
	v.SetDefault("SNAPSHOT_WORKERS", 2)
	v.SetDefault("SNAPSHOT_MAX_RETRIES", 3)
}

// Location resolves the configured insight timezone, falling back to UTC.
func (c InsightsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
