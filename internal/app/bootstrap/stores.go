package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	supabase "github.com/supabase-community/supabase-go"

	"github.com/medexa/medexa-platform/internal/accounts"
	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/compliance"
	appconfig "github.com/medexa/medexa-platform/internal/config"
	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// Stores groups the persistence backends selected by STORE_BACKEND.
type Stores struct {
	Backend      string
	Appointments appointments.Repository
	Accounts     accounts.Repository

	// Pool is set for the postgres backend so callers can close it and
	// register a readiness check.
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (s *Stores) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

// BuildStores wires the appointment and account repositories.
func BuildStores(ctx context.Context, cfg *appconfig.Config, supa *supabase.Client, logger *logging.Logger) (*Stores, error) {
	if logger == nil {
		logger = logging.Default()
	}
	backend := "memory"
	if cfg != nil && strings.TrimSpace(cfg.StoreBackend) != "" {
		backend = cfg.StoreBackend
	}

	switch backend {
	case "memory":
		logger.Warn("using in-memory stores; data is lost on restart")
		return &Stores{
			Backend:      backend,
			Appointments: appointments.NewInMemoryRepository(),
			Accounts:     accounts.NewInMemoryRepository(),
		}, nil
	case "postgres":
		pool, err := BuildPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres stores")
		return &Stores{
			Backend:      backend,
			Appointments: appointments.NewPostgresRepository(pool),
			Accounts:     accounts.NewPostgresRepository(pool),
			Pool:         pool,
		}, nil
	case "supabase":
		if supa == nil {
			return nil, ErrSupabaseNotConfigured
		}
		logger.Info("using supabase stores")
		return &Stores{
			Backend:      backend,
			Appointments: appointments.NewSupabaseRepository(supa),
			Accounts:     accounts.NewSupabaseRepository(supa),
		}, nil
	}
	return nil, fmt.Errorf("bootstrap: unknown store backend %q", backend)
}

// BuildAuthenticator uses Supabase auth when a project is configured and the
// in-memory authenticator otherwise.
func BuildAuthenticator(cfg *appconfig.Config, supa *supabase.Client, logger *logging.Logger) session.Authenticator {
	if logger == nil {
		logger = logging.Default()
	}
	if supa == nil {
		logger.Warn("supabase not configured; using in-memory authenticator")
		return session.NewInMemoryAuthenticator()
	}
	if cfg == nil || strings.TrimSpace(cfg.SupabaseJWTSecret) == "" {
		logger.Warn("SUPABASE_JWT_SECRET not set; every session will be rejected")
	}
	secret := ""
	if cfg != nil {
		secret = cfg.SupabaseJWTSecret
	}
	return session.NewSupabaseAuthenticator(supa.Auth, secret)
}

// BuildAuditTrail writes audit events to postgres when a pool is available
// and to the log otherwise.
func BuildAuditTrail(stores *Stores, logger *logging.Logger) compliance.Trail {
	if stores != nil && stores.Pool != nil {
		return compliance.NewAuditService(stdlib.OpenDBFromPool(stores.Pool))
	}
	return compliance.NewLogAuditor(logger)
}
