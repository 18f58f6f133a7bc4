package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medexa/medexa-platform/cmd/mainconfig"
	"github.com/medexa/medexa-platform/internal/api/router"
	"github.com/medexa/medexa-platform/internal/app/bootstrap"
	"github.com/medexa/medexa-platform/internal/booking"
	appconfig "github.com/medexa/medexa-platform/internal/config"
	"github.com/medexa/medexa-platform/internal/http/handlers"
	httpmiddleware "github.com/medexa/medexa-platform/internal/http/middleware"
	"github.com/medexa/medexa-platform/internal/notify"
	"github.com/medexa/medexa-platform/internal/observability/metrics"
	"github.com/medexa/medexa-platform/internal/profile"
	"github.com/medexa/medexa-platform/internal/registration"
	"github.com/medexa/medexa-platform/internal/rooms"
	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/internal/wizard"
	"github.com/medexa/medexa-platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting medexa API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	go a.limiter.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type app struct {
	handler  http.Handler
	limiter  *httpmiddleware.RateLimiter
	hub      *session.Hub
	registry *prometheus.Registry
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// setupMetrics registers the booking collectors plus the Go runtime ones on
// a private registry.
func setupMetrics() (*prometheus.Registry, http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}

func loadLocation(name string, logger *logging.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown timezone; using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	reg, metricsHandler, bookingMetrics := setupMetrics()
	a := &app{registry: reg}
	checks := map[string]router.HealthCheck{}

	var awsCfg aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = loaded
	}

	supa, err := bootstrap.BuildSupabaseClient(cfg)
	if err != nil {
		return nil, err
	}
	stores, err := bootstrap.BuildStores(ctx, cfg, supa, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, stores.Close)
	if stores.Pool != nil {
		checks["postgres"] = stores.Pool.Ping
	}

	var redisClient *redis.Client
	if cfg.DraftBackend == "redis" {
		redisClient = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	drafts := bootstrap.BuildDraftStore(cfg, redisClient, logger)

	a.hub = session.NewHub()
	auth := session.NewManager(bootstrap.BuildAuthenticator(cfg, supa, logger), a.hub, logger)

	provisioner := profile.NewProvisioner(stores.Accounts, bookingMetrics, logger)
	a.hub.Subscribe(provisioner.SignUpListener())
	a.hub.Subscribe(wizard.SignOutListener(drafts, logger))

	confirmer := notify.NewConfirmer(bootstrap.BuildMailer(cfg, awsCfg, logger), logger)
	gateway := booking.NewGateway(auth, stores.Appointments, confirmer, bookingMetrics, logger)

	daily := rooms.NewDailyClient(rooms.DailyConfig{
		APIKey:     cfg.DailyAPIKey,
		BaseURL:    cfg.DailyBaseURL,
		Timeout:    cfg.DailyTimeout,
		Expiration: cfg.RoomExpiration,
	}, bookingMetrics, logger)
	if cfg.DailyAPIKey == "" {
		logger.Warn("DAILY_API_KEY not set; room creation will fail")
	}

	reader := profile.NewReader(profile.ReaderConfig{
		Auth:        auth,
		Accounts:    stores.Accounts,
		Appts:       stores.Appointments,
		Provisioner: provisioner,
		Rooms:       daily,
		Location:    loadLocation(cfg.Timezone, logger),
		Logger:      logger,
	})

	registrationHandler := registration.NewHandler(registration.Config{
		Auth:        auth,
		Accounts:    stores.Accounts,
		Provisioner: provisioner,
		Files:       bootstrap.BuildFileStore(cfg, awsCfg, logger),
		Bucket:      cfg.DocumentsBucket,
		Logger:      logger,
	})

	var (
		adminAppointments *handlers.AdminAppointmentsHandler
		adminDoctors      *handlers.AdminDoctorsHandler
		adminAudit        *handlers.AdminAuditHandler
	)
	if cfg.AdminJWTSecret != "" {
		trail := bootstrap.BuildAuditTrail(stores, logger)
		adminAppointments = handlers.NewAdminAppointmentsHandler(stores.Appointments, trail, logger)
		adminDoctors = handlers.NewAdminDoctorsHandler(stores.Accounts, trail, logger)
		adminAudit = handlers.NewAdminAuditHandler(trail, logger)
	} else {
		logger.Warn("ADMIN_JWT_SECRET not set; admin routes disabled")
	}

	a.limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	a.handler = router.New(&router.Config{
		Logger:             logger,
		Wizard:             wizard.NewHandler(drafts, gateway, auth, logger).WithMetrics(bookingMetrics),
		Rooms:              rooms.NewHandler(daily, logger),
		Profile:            profile.NewHandler(reader, logger),
		Registration:       registrationHandler,
		AdminAppointments:  adminAppointments,
		AdminDoctors:       adminDoctors,
		AdminAudit:         adminAudit,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        a.limiter,
		ReadinessChecks:    checks,
	})
	return a, nil
}
