// Package bootstrap builds the runtime dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	supabase "github.com/supabase-community/supabase-go"

	appconfig "github.com/medexa/medexa-platform/internal/config"
	"github.com/medexa/medexa-platform/internal/wizard"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// ErrSupabaseNotConfigured is returned when a Supabase backend is selected
// without a project URL or key.
var ErrSupabaseNotConfigured = errors.New("bootstrap: supabase url and anon key required")

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildDraftStore picks the wizard draft store. Redis is used only when
// selected and reachable; everything else falls back to process memory.
func BuildDraftStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) wizard.DraftStore {
	if logger == nil {
		logger = logging.Default()
	}
	ttl := 2 * time.Hour
	backend := "memory"
	if cfg != nil {
		if cfg.DraftTTL > 0 {
			ttl = cfg.DraftTTL
		}
		backend = cfg.DraftBackend
	}
	if backend == "redis" {
		if redisClient != nil {
			logger.Info("wizard drafts stored in redis", "ttl", ttl.String())
			return wizard.NewRedisDraftStore(redisClient, ttl)
		}
		logger.Warn("redis draft backend selected but redis unavailable; using memory")
	}
	return wizard.NewMemoryDraftStore(ttl)
}

// BuildPostgresPool connects to DATABASE_URL and pings it.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("bootstrap: DATABASE_URL required for postgres backend")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// BuildSupabaseClient returns the project client, or nil when no project
// is configured.
func BuildSupabaseClient(cfg *appconfig.Config) (*supabase.Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.SupabaseURL) == "" {
		return nil, nil
	}
	if strings.TrimSpace(cfg.SupabaseAnonKey) == "" {
		return nil, ErrSupabaseNotConfigured
	}
	client, err := supabase.NewClient(strings.TrimRight(cfg.SupabaseURL, "/"), cfg.SupabaseAnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: supabase client: %w", err)
	}
	return client, nil
}
