package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	ORS      ORSConfig
	OCM      OCMConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Planner  PlannerConfig
	NewRelic NewRelicConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// How long a suspended place resolution is kept waiting for a choice.
	SessionTTL time.Duration
}

// ORSConfig holds OpenRouteService configuration.
type ORSConfig struct {
	APIKey     string
	BaseURL    string
	Profile    string
	Country    string
	SearchSize int
	Timeout    time.Duration
}

// OCMConfig holds OpenChargeMap configuration.
type OCMConfig struct {
	APIKey     string
	BaseURL    string
	RadiusKm   float64
	MaxResults int
	Timeout    time.Duration
}

// CacheConfig selects the response cache backend: memory, redis, postgres or sqlite.
type CacheConfig struct {
	Backend string
	TTL     time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds trip storage configuration. URL selects Postgres;
// otherwise SQLitePath is used.
type DatabaseConfig struct {
	URL        string
	SQLitePath string
}

// PlannerConfig holds defaults for trip planning.
type PlannerConfig struct {
	DefaultMaxDailyKm float64
	MaxStages         int
	Policy            string
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

type LogConfig struct {
	Level       string
	Development bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
			SessionTTL:   getDurationEnv("SESSION_TTL", 30*time.Minute),
		},
		ORS: ORSConfig{
			APIKey:     getEnv("ORS_API_KEY", ""),
			BaseURL:    getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
			Profile:    getEnv("ORS_PROFILE", "driving-car"),
			Country:    getEnv("ORS_COUNTRY", "COL"),
			SearchSize: getIntEnv("ORS_SEARCH_SIZE", 5),
			Timeout:    getDurationEnv("ORS_TIMEOUT", 10*time.Second),
		},
		OCM: OCMConfig{
			APIKey:     getEnv("OCM_API_KEY", ""),
			BaseURL:    getEnv("OCM_BASE_URL", "https://api.openchargemap.io"),
			RadiusKm:   getFloatEnv("OCM_RADIUS_KM", 25),
			MaxResults: getIntEnv("OCM_MAX_RESULTS", 10),
			Timeout:    getDurationEnv("OCM_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			TTL:     getDurationEnv("CACHE_TTL", time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL:        getEnv("DATABASE_URL", ""),
			SQLitePath: getEnv("DB_PATH", "data/trips.db"),
		},
		Planner: PlannerConfig{
			DefaultMaxDailyKm: getFloatEnv("DEFAULT_MAX_DAILY_KM", 200),
			MaxStages:         getIntEnv("MAX_STAGES", 30),
			Policy:            getEnv("ACCEPTANCE_POLICY", "first-fit"),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ev-route-planner"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getBoolEnv("LOG_DEVELOPMENT", false),
		},
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ORS.APIKey) == "" {
		errs = append(errs, errors.New("ORS_API_KEY is required"))
	}
	switch c.Cache.Backend {
	case "memory", "redis", "postgres", "sqlite", "none":
	default:
		errs = append(errs, errors.New("CACHE_BACKEND must be one of memory, redis, postgres, sqlite, none"))
	}
	if c.Cache.Backend == "postgres" && c.Database.URL == "" {
		errs = append(errs, errors.New("CACHE_BACKEND=postgres needs DATABASE_URL"))
	}
	if c.Planner.DefaultMaxDailyKm <= 0 {
		errs = append(errs, errors.New("DEFAULT_MAX_DAILY_KM must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
