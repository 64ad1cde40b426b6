package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/murliorganic/backend-store/internal/auth"
	"github.com/murliorganic/backend-store/internal/cart"
	"github.com/murliorganic/backend-store/internal/catalog"
	"github.com/murliorganic/backend-store/internal/checkout"
	"github.com/murliorganic/backend-store/internal/common"
	"github.com/murliorganic/backend-store/internal/config"
	"github.com/murliorganic/backend-store/internal/health"
	"github.com/murliorganic/backend-store/internal/obs"
	"github.com/murliorganic/backend-store/internal/order"
	"github.com/murliorganic/backend-store/internal/payment"
	"github.com/murliorganic/backend-store/internal/pricing"
	"github.com/murliorganic/backend-store/internal/ratelimit"
	"github.com/murliorganic/backend-store/internal/repo"
	"github.com/murliorganic/backend-store/internal/resilience"
	"github.com/murliorganic/backend-store/internal/security"
)

func main() {
	cfg := config.MustLoad()

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "store")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := repo.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("disconnect mongo")
		}
	}()
	db := mongoClient.Database(cfg.MongoDatabase)

	users := repo.NewUsers(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ensure user indexes")
	}
	products := repo.NewProducts(db)
	carts := repo.NewCarts(db)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	authSvc, err := auth.NewService(auth.Config{
		Store:          users,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Svc: authSvc}
	authMiddleware := auth.Middleware{Svc: authSvc}

	catalogSvc := catalog.NewService(products, catalog.NewCache(redisClient, cfg.CatalogCacheTTL), logger)
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	cartSvc := &cart.Service{Store: carts}
	cartHandler := &cart.Handler{Svc: cartSvc}

	orders := &order.Store{R: redisClient, TTL: cfg.PaymentOrderTTL}
	gateway := payment.BreakerGateway{
		Next: &payment.Razorpay{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			BaseURL:   cfg.RazorpayBaseURL,
			Timeout:   cfg.GatewayTimeout,
		},
		Breaker: resilience.NewBreaker(5, 0.5, 30*time.Second).
			WithTarget("razorpay").
			WithLogger(logger),
	}
	paymentSvc := &payment.Service{
		Gateway:  gateway,
		Orders:   orders,
		Currency: cfg.CurrencyCode,
		Log:      logger,
	}

	checkoutHandler := &checkout.Handler{
		Svc: &checkout.Service{
			Carts:  cartSvc,
			Orders: orders,
			Params: pricing.Params{
				DiscountThreshold: cfg.DiscountThreshold,
				DiscountRateBps:   cfg.DiscountRateBPS,
				TaxRateBps:        cfg.TaxRateBPS,
			},
			Log: logger,
		},
		Payments: paymentSvc,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	loginLimiter, err := ratelimit.NewLimiter(redisClient, cfg.LoginRateMax, cfg.LoginRateWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	loginLimit := ratelimit.Handler{
		Limiter: loginLimiter,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{mongo: mongoClient, redis: redisClient},
		MongoTimeout: 500 * time.Millisecond,
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	// The storefront payment widget talks to these two routes directly, so
	// they live at the root instead of under the versioned prefix.
	r.Group(func(g chi.Router) {
		g.Use(authMiddleware.RequireAuth)
		g.Post("/create-order", checkoutHandler.CreateOrder)
		g.Post("/verify-payment", checkoutHandler.VerifyPayment)
	})

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.List)
		v.Get("/products/{id}", catalogHandler.Get)

		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimit.Middleware).Post("/register", authHandler.Register)
			a.With(loginLimit.Middleware).Post("/login", authHandler.Login)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/cart", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Get("/", cartHandler.Get)
			c.With(idem.Middleware).Post("/", cartHandler.Update)
		})

		v.Group(func(g chi.Router) {
			g.Use(authMiddleware.RequireAuth)
			g.Post("/checkout/quote", checkoutHandler.Quote)
			g.With(idem.Middleware).Post("/checkout", checkoutHandler.Finalize)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
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
	mongo *mongo.Client
	redis *redis.Client
}

func (c readinessChecker) PingMongo(ctx context.Context, timeout time.Duration) error {
	if c.mongo == nil {
		return errors.New("mongo not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.mongo.Ping(ctx, readpref.Primary())
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
