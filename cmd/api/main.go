package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/noah-isme/backend-boka/internal/app"
	"github.com/noah-isme/backend-boka/internal/audit"
	"github.com/noah-isme/backend-boka/internal/auth"
	"github.com/noah-isme/backend-boka/internal/booking"
	"github.com/noah-isme/backend-boka/internal/cache"
	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/config"
	"github.com/noah-isme/backend-boka/internal/coupon"
	"github.com/noah-isme/backend-boka/internal/events"
	"github.com/noah-isme/backend-boka/internal/form"
	"github.com/noah-isme/backend-boka/internal/health"
	"github.com/noah-isme/backend-boka/internal/notify"
	"github.com/noah-isme/backend-boka/internal/obs"
	"github.com/noah-isme/backend-boka/internal/quote"
	"github.com/noah-isme/backend-boka/internal/ratelimit"
	"github.com/noah-isme/backend-boka/internal/security"
	"github.com/noah-isme/backend-boka/internal/service"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "boka")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "boka-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "boka-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if envBool("DB_AUTO_MIGRATE", true) {
		migrationsDir := envOrDefault("DB_MIGRATIONS_DIR", "migrations")
		m, err := migrate.New("file://"+migrationsDir, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise migrations")
		}
		if err := app.RunMigrations(m); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	tenantSvc := tenant.NewService(tenant.ServiceConfig{
		Store:  tenant.NewRepository(pool),
		Logger: logger,
	})
	tenantHandler := tenant.NewHandler(tenant.HandlerConfig{Service: tenantSvc})
	tenantResolver := tenant.NewResolver(cfg.TenantHeader, cfg.RootDomain, envOrDefault("TENANT_DEFAULT", ""))

	authSvc, err := auth.NewService(auth.Config{
		Store:          auth.NewRepository(pool),
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := auth.NewHandler(auth.HandlerConfig{Service: authSvc, Tenants: tenantSvc})
	authMiddleware := auth.Middleware{Service: authSvc}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Username: redisOpts.Username,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	enqueuer := &notify.Enqueuer{
		Client:  taskClient,
		Logger:  logger,
		Enabled: cfg.NotifyEmailEnabled,
	}
	notifiers := []events.Notifier{enqueuer}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, &notify.Webhook{
			URL:     cfg.WebhookURL,
			Secret:  cfg.WebhookSecret,
			Client:  notify.WebhookClient(envDurationMillis("WEBHOOK_TIMEOUT_MS", 5000)),
			Logger:  logger,
			Enabled: true,
		})
	}
	bus := &events.Bus{
		Store:     events.NewRepository(pool),
		Notifiers: notifiers,
	}

	auditSvc := &audit.Service{
		Store:        audit.NewRepository(pool),
		Enabled:      envBool("AUDIT_ENABLED", true),
		SamplingRate: envFloat("AUDIT_SAMPLING_RATE", 1.0),
	}
	auditRecorder := audit.HTTPRecorder{
		Service: auditSvc,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit entry") },
	}
	auditHandler := audit.Handler{Store: auditSvc.Store}

	catalogSvc := service.NewService(service.ServiceConfig{
		Store:  service.NewRepository(pool),
		Logger: logger,
	})
	catalogHandler := service.NewHandler(service.HandlerConfig{Service: catalogSvc})

	couponSvc := coupon.NewService(coupon.ServiceConfig{
		Store:  coupon.NewRepository(pool),
		Logger: logger,
	})
	couponHandler := coupon.NewHandler(coupon.HandlerConfig{Service: couponSvc})

	formSvc := form.NewService(form.ServiceConfig{
		Store:   form.NewRepository(pool),
		Catalog: catalogSvc,
		Cache:   cache.New(redisClient, cfg.FormCacheTTL),
		Bus:     bus,
		Logger:  logger,
	})
	formHandler := form.NewHandler(form.HandlerConfig{Service: formSvc})

	quoteSvc := quote.NewService(quote.ServiceConfig{
		Catalog:   catalogSvc,
		Coupons:   couponSvc,
		Validator: validate,
		Logger:    logger,
	})
	quoteHandler := quote.NewHandler(quote.HandlerConfig{
		Service: quoteSvc,
		Tenants: tenantSvc,
		Forms:   formSvc,
	})

	bookingSvc := booking.NewService(booking.ServiceConfig{
		Store:     booking.NewRepository(pool),
		Quoter:    quoteSvc,
		Coupons:   couponSvc,
		Bus:       bus,
		Validator: validate,
		Logger:    logger,
	})
	bookingHandler := booking.NewHandler(booking.HandlerConfig{
		Service: bookingSvc,
		Tenants: tenantSvc,
	})

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	quoteLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:quote:"},
		Config: ratelimit.Config{
			Key: func(r *http.Request) string {
				tenantID, _ := tenant.From(r.Context())
				return tenantID + ":" + common.ClientIP(r)
			},
			Window: time.Minute,
			Max:    cfg.QuoteRatePerMinute + cfg.QuoteRateBurst,
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("quote rate limit") },
	}

	limiterStore, err := app.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	loginRate, err := limiter.NewRateFromFormatted(envOrDefault("AUTH_LOGIN_RATE", "10-M"))
	if err != nil {
		logger.Fatal().Err(err).Msg("parse login rate")
	}
	loginLimiter := limiterstdlib.NewMiddleware(limiter.New(limiterStore, loginRate))

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(tenantResolver.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: envBool("SECURE_HEADERS", true)}.Middleware)
	r.Use(security.BodyLimit{Max: envInt64("SECURE_MAX_BODY_BYTES", 1<<20)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", cfg.TenantHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/services", catalogHandler.Public)
		v.Get("/forms/{slug}", formHandler.Public)
		v.With(quoteLimit.Middleware).Post("/quote", quoteHandler.Quote)
		v.With(quoteLimit.Middleware).Post("/forms/{slug}/quote", quoteHandler.FormQuote)
		v.With(idem.Middleware).Post("/bookings", bookingHandler.Create)

		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimiter.Handler).Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)

			a.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)
				protected.Get("/me", authHandler.Me)
			})
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(auditRecorder.Middleware(audit.HTTPConfig{}))

			admin.Get("/company", tenantHandler.Company)
			admin.Put("/company", tenantHandler.UpdateCompany)

			admin.Get("/services", catalogHandler.List)
			admin.Post("/services", catalogHandler.Create)
			admin.Get("/services/{id}", catalogHandler.Get)
			admin.Put("/services/{id}", catalogHandler.Update)
			admin.Delete("/services/{id}", catalogHandler.Delete)

			admin.Get("/forms", formHandler.List)
			admin.Post("/forms", formHandler.Create)
			admin.Get("/forms/{id}", formHandler.Get)
			admin.Put("/forms/{id}", formHandler.Update)
			admin.Delete("/forms/{id}", formHandler.Delete)

			admin.Get("/coupons", couponHandler.List)
			admin.Post("/coupons", couponHandler.Create)
			admin.Get("/coupons/{id}", couponHandler.Get)
			admin.Put("/coupons/{id}", couponHandler.Update)
			admin.Delete("/coupons/{id}", couponHandler.Delete)

			admin.Get("/bookings", bookingHandler.List)
			admin.Get("/bookings/{id}", bookingHandler.Get)
			admin.Post("/bookings/{id}/accept", bookingHandler.Accept)
			admin.Post("/bookings/{id}/reject", bookingHandler.Reject)

			admin.Get("/audit-logs", auditHandler.List)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		// Fail readiness first so the load balancer drains us, then shut down.
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
