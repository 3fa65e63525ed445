package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Env          string
	DBDriver     string // sqlite | pgx
	DBDSN        string
	DBMaxConns   int // ignored for sqlite, which always runs on one connection
	LogLevel     string
	LogFile      string
	TemplatesDir string
	RateLimit    int // requests per minute per IP, 0 disables

	JWTSecret      string
	JWTTTL         time.Duration
	APIRequireAuth bool
	SeedAdminPass  string

	ReaperSchedule string
	PendingTTL     time.Duration
}

// Load reads configuration from the environment. A .env file, if present, is
// loaded first and never overrides variables that are already set.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file, using environment")
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("APP_ENV", "development"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		DBDSN:        getEnv("DB_DSN", "storebill.db"), // sqlite file in project root
		DBMaxConns:   getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		TemplatesDir: getEnv("TEMPLATES_DIR", "./web/templates"),
		RateLimit:    getEnvAsInt("RATE_LIMIT_PER_MIN", 120),

		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		JWTTTL:         getEnvAsDuration("JWT_TTL", 24*time.Hour),
		APIRequireAuth: getEnvAsBool("API_REQUIRE_AUTH", false),
		SeedAdminPass:  getEnv("SEED_ADMIN_PASSWORD", "admin123"),

		ReaperSchedule: getEnv("REAPER_SCHEDULE", "@every 5m"),
		PendingTTL:     getEnvAsDuration("PENDING_TTL", 15*time.Minute),
	}
	log.Printf("[config] PORT=%s APP_ENV=%s DB_DRIVER=%s LOG_LEVEL=%s API_REQUIRE_AUTH=%t REAPER_SCHEDULE=%q",
		cfg.Port, cfg.Env, cfg.DBDriver, cfg.LogLevel, cfg.APIRequireAuth, cfg.ReaperSchedule)
	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid boolean for %s: %s", key, v)
		return def
	}
	return b
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return def
}
