package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.StoreBackend != "memory" {
		t.Fatalf("expected memory store by default, got %s", cfg.StoreBackend)
	}
	if cfg.RoomExpiration != time.Hour {
		t.Fatalf("expected one hour room expiration, got %s", cfg.RoomExpiration)
	}
	if cfg.DocumentsBucket != "doctor-documents" {
		t.Fatalf("unexpected bucket %s", cfg.DocumentsBucket)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected default origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_BACKEND", " Postgres ")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("DRAFT_TTL", "45m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "9")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://medexa.hn, ,https://app.medexa.hn")

	cfg := Load()
	if cfg.Port != "9090" || cfg.Env != "production" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected basics: %+v", cfg)
	}
	if cfg.StoreBackend != "postgres" {
		t.Fatalf("expected normalized backend, got %q", cfg.StoreBackend)
	}
	if cfg.DraftTTL != 45*time.Minute {
		t.Fatalf("expected 45m draft ttl, got %s", cfg.DraftTTL)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.RateLimitPerSecond != 2.5 || cfg.RateLimitBurst != 9 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://app.medexa.hn" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DRAFT_TTL", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")
	cfg := Load()
	if cfg.DraftTTL != 2*time.Hour {
		t.Fatalf("expected default ttl, got %s", cfg.DraftTTL)
	}
	if cfg.RateLimitBurst != 5 {
		t.Fatalf("expected default burst, got %d", cfg.RateLimitBurst)
	}
}
