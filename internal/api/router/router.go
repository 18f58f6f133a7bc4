package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medexa/medexa-platform/internal/http/handlers"
	httpmiddleware "github.com/medexa/medexa-platform/internal/http/middleware"
	"github.com/medexa/medexa-platform/internal/profile"
	"github.com/medexa/medexa-platform/internal/registration"
	"github.com/medexa/medexa-platform/internal/rooms"
	"github.com/medexa/medexa-platform/internal/wizard"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration. Nil handlers leave their routes
// unmounted.
type Config struct {
	Logger             *logging.Logger
	Wizard             *wizard.Handler
	Rooms              *rooms.Handler
	Profile            *profile.Handler
	Registration       *registration.Handler
	AdminAppointments  *handlers.AdminAppointmentsHandler
	AdminDoctors       *handlers.AdminDoctorsHandler
	AdminAudit         *handlers.AdminAuditHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter guards the endpoints that call paid or abusable
	// providers (room creation, sign-up).
	RateLimiter *httpmiddleware.RateLimiter

	// ReadinessChecks run on GET /ready, keyed by dependency name.
	ReadinessChecks map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", health)
	r.Get("/ready", readiness(cfg.ReadinessChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.Session)
		if cfg.Wizard != nil {
			cfg.Wizard.Routes(api)
		}
		if cfg.Profile != nil {
			cfg.Profile.Routes(api)
		}

		api.Group(func(limited chi.Router) {
			if cfg.RateLimiter != nil {
				limited.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			if cfg.Rooms != nil {
				limited.Post("/create-room", cfg.Rooms.CreateRoom)
			}
			if cfg.Registration != nil {
				cfg.Registration.Routes(limited)
			}
		})
	})

	if cfg.AdminAppointments != nil || cfg.AdminDoctors != nil || cfg.AdminAudit != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.AdminAppointments != nil {
				cfg.AdminAppointments.Routes(admin)
			}
			if cfg.AdminDoctors != nil {
				cfg.AdminDoctors.Routes(admin)
			}
			if cfg.AdminAudit != nil {
				cfg.AdminAudit.Routes(admin)
			}
		})
	}

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readiness(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
