package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("API_REQUIRE_AUTH", "true")
	t.Setenv("PENDING_TTL", "30m")
	t.Setenv("RATE_LIMIT_PER_MIN", "not-a-number")

	cfg := Load()
	if cfg.Port != "9090" || cfg.DBDriver != "pgx" || !cfg.APIRequireAuth {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.PendingTTL != 30*time.Minute {
		t.Fatalf("PENDING_TTL: got %s", cfg.PendingTTL)
	}
	if cfg.RateLimit != 120 {
		t.Fatalf("bad int should fall back to default, got %d", cfg.RateLimit)
	}
	if cfg.JWTTTL != 24*time.Hour || cfg.ReaperSchedule != "@every 5m" {
		t.Fatalf("defaults: %+v", cfg)
	}
}
