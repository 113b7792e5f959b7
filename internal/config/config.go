package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session storage backends
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds all configuration for portfolio-sync
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
}

// APIConfig holds the backend connection settings
type APIConfig struct {
	// BaseURL includes the /api prefix; service paths are relative to it
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	LoginRoute string        `yaml:"login_route"`
}

// SessionConfig selects where the access token is persisted
type SessionConfig struct {
	Storage     string `yaml:"storage"`
	File        string `yaml:"file"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig holds query cache timings
type CacheConfig struct {
	GCTime              time.Duration `yaml:"gc_time"`
	GCInterval          time.Duration `yaml:"gc_interval"`
	ProfileStaleTime    time.Duration `yaml:"profile_stale_time"`
	SkillsStaleTime     time.Duration `yaml:"skills_stale_time"`
	CategoriesStaleTime time.Duration `yaml:"categories_stale_time"`
	DataStaleTime       time.Duration `yaml:"data_stale_time"`
	GalleryStaleTime    time.Duration `yaml:"gallery_stale_time"`
	DetailStaleTime     time.Duration `yaml:"detail_stale_time"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig holds the local development API server configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SeedDir        string        `yaml:"seed_dir"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8080/api",
			Timeout:    30 * time.Second,
			LoginRoute: "/login",
		},
		Session: SessionConfig{
			Storage:     StorageFile,
			RedisPrefix: "portfolio-sync:",
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Cache: CacheConfig{
			GCTime:              5 * time.Minute,
			GCInterval:          time.Minute,
			ProfileStaleTime:    5 * time.Minute,
			SkillsStaleTime:     5 * time.Minute,
			CategoriesStaleTime: 5 * time.Minute,
			DataStaleTime:       time.Minute,
			GalleryStaleTime:    30 * time.Second,
			DetailStaleTime:     time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			JWTSecret:      "dev-secret-change-me",
			TokenTTL:       24 * time.Hour,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by FOLIO_CONFIG, then environment variables (a .env file is read first
// when present)
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("FOLIO_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.API.BaseURL = getEnv("API_BASE_URL", c.API.BaseURL)
	c.API.Timeout = getEnvAsDuration("API_TIMEOUT", c.API.Timeout)
	c.API.LoginRoute = getEnv("LOGIN_ROUTE", c.API.LoginRoute)

	c.Session.Storage = getEnv("SESSION_STORAGE", c.Session.Storage)
	c.Session.File = getEnv("SESSION_FILE", c.Session.File)
	c.Session.RedisPrefix = getEnv("SESSION_REDIS_PREFIX", c.Session.RedisPrefix)

	c.Redis.Address = getEnv("REDIS_ADDRESS", c.Redis.Address)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)

	c.Cache.GCTime = getEnvAsDuration("CACHE_GC_TIME", c.Cache.GCTime)
	c.Cache.GCInterval = getEnvAsDuration("CACHE_GC_INTERVAL", c.Cache.GCInterval)
	c.Cache.ProfileStaleTime = getEnvAsDuration("STALE_TIME_PROFILE", c.Cache.ProfileStaleTime)
	c.Cache.SkillsStaleTime = getEnvAsDuration("STALE_TIME_SKILLS", c.Cache.SkillsStaleTime)
	c.Cache.CategoriesStaleTime = getEnvAsDuration("STALE_TIME_CATEGORIES", c.Cache.CategoriesStaleTime)
	c.Cache.DataStaleTime = getEnvAsDuration("STALE_TIME_DATA", c.Cache.DataStaleTime)
	c.Cache.GalleryStaleTime = getEnvAsDuration("STALE_TIME_GALLERY", c.Cache.GalleryStaleTime)
	c.Cache.DetailStaleTime = getEnvAsDuration("STALE_TIME_DETAIL", c.Cache.DetailStaleTime)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)
	c.Server.TokenTTL = getEnvAsDuration("TOKEN_TTL", c.Server.TokenTTL)
	c.Server.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", c.Server.AllowedOrigins)
	c.Server.SeedDir = getEnv("SERVER_SEED_DIR", c.Server.SeedDir)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive, got %s", c.API.Timeout)
	}

	switch c.Session.Storage {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for redis session storage")
		}
	default:
		return fmt.Errorf("unknown session storage: %q", c.Session.Storage)
	}

	stale := map[string]time.Duration{
		"profile":    c.Cache.ProfileStaleTime,
		"skills":     c.Cache.SkillsStaleTime,
		"categories": c.Cache.CategoriesStaleTime,
		"data":       c.Cache.DataStaleTime,
		"gallery":    c.Cache.GalleryStaleTime,
		"detail":     c.Cache.DetailStaleTime,
	}
	for name, d := range stale {
		if d < 0 {
			return fmt.Errorf("%s stale time must not be negative", name)
		}
	}

	if c.Cache.GCInterval <= 0 || c.Cache.GCTime <= 0 {
		return fmt.Errorf("cache GC time and interval must be positive")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// SlogLevel parses the level name
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// NewLogger builds a slog logger from the log settings
func (l LogConfig) NewLogger() *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
