package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/aigov-api/internal/auth"
	"github.com/noah-isme/aigov-api/internal/cache"
	"github.com/noah-isme/aigov-api/internal/cart"
	"github.com/noah-isme/aigov-api/internal/catalog"
	"github.com/noah-isme/aigov-api/internal/config"
	"github.com/noah-isme/aigov-api/internal/events"
	"github.com/noah-isme/aigov-api/internal/governance"
	"github.com/noah-isme/aigov-api/internal/health"
	"github.com/noah-isme/aigov-api/internal/lock"
	"github.com/noah-isme/aigov-api/internal/notify"
	"github.com/noah-isme/aigov-api/internal/obs"
	"github.com/noah-isme/aigov-api/internal/ratelimit"
	"github.com/noah-isme/aigov-api/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	if cfg.Obs.EnablePrometheus {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, prometheus.DefaultRegisterer)
	}

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "aigov-api",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	redisClient, err := newRedis(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	app, err := buildDeps(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise services")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(cfg, app, tracingEnabled, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sweepCarts(gctx, app.carts, cfg.CartSweepInterval, logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		health.SetReady(false)
		logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("server draining")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited unexpectedly")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

type deps struct {
	redis         *redis.Client
	catalog       *catalog.Handler
	governance    *governance.Handler
	carts         *cart.Registry
	cartHandler   *cart.Handler
	feed          *notify.Handler
	activity      *events.Handler
	auth          *auth.Handler
	authMW        auth.Middleware
	apiLimiter    *ratelimit.API
	signInLimiter ratelimit.Handler
}

func newRedis(cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func buildDeps(cfg *config.Config, rdb *redis.Client, logger zerolog.Logger) (*deps, error) {
	provider, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	breaker := resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget("redis_cache").WithLogger(logger)

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Provider:     provider,
		Cache:        cache.NewJSON(rdb, "catalog", cfg.CatalogCacheTTL).WithBreaker(breaker),
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	if err != nil {
		return nil, err
	}

	projects, err := governance.LoadDefault()
	if err != nil {
		return nil, err
	}
	govSvc := &governance.Service{
		Projects:     projects,
		Cache:        cache.NewJSON(rdb, "gov", cfg.DashboardCacheTTL).WithBreaker(breaker),
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
		Lock:         &lock.Locker{R: rdb, Prefix: "gov"},
	}

	templates, err := notify.LoadDefaultSeed()
	if err != nil {
		return nil, err
	}
	feed := notify.NewFeed(templates, cfg.FeedCapacity)
	eventLog := events.NewMemoryLog(cfg.EventLogCapacity)
	bus := &events.Bus{
		Store:     eventLog,
		Notifiers: []events.Notifier{notify.FeedNotifier{Feed: feed}},
	}

	carts := cart.NewRegistry(cfg.CartIdleTTL)

	directory, err := auth.LoadDefaultDirectory()
	if err != nil {
		return nil, err
	}
	authSvc, err := auth.NewService(auth.Config{
		Directory:      directory,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
	})
	if err != nil {
		return nil, err
	}

	limiterStore, err := ratelimit.NewStore(rdb, "aigov:limiter")
	if err != nil {
		return nil, err
	}
	apiLimiter, err := ratelimit.NewAPI(limiterStore, cfg.APIRateLimit)
	if err != nil {
		return nil, err
	}
	apiLimiter.OnError = func(err error) {
		logger.Warn().Err(err).Msg("api rate limiter unavailable")
	}

	authHandler := &auth.Handler{
		Service:          authSvc,
		Sessions:         carts,
		AccessCookieName: cfg.AccessCookieName,
		CookieDomain:     cfg.CookieDomain,
		CookieSecure:     cfg.CookieSecure,
		CookieSameSite:   cfg.CookieSameSite,
	}
	signInLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: rdb, Prefix: "aigov:rl:"},
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("signin"), Window: cfg.SignInRateWindow, Max: cfg.SignInRateLimit},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("signin rate limiter unavailable")
		},
	}

	return &deps{
		redis:         rdb,
		catalog:       catalog.NewHandler(catalog.HandlerConfig{Service: catalogSvc}),
		governance:    &governance.Handler{Svc: govSvc},
		carts:         carts,
		cartHandler:   cart.NewHandler(carts, provider, bus, cfg.CurrencyCode),
		feed:          &notify.Handler{Feed: feed},
		activity:      &events.Handler{Log: eventLog},
		auth:          authHandler,
		authMW:        auth.Middleware{Service: authSvc, AccessCookie: cfg.AccessCookieName},
		apiLimiter:    apiLimiter,
		signInLimiter: signInLimiter,
	}, nil
}

func loadCatalog(path string) (*catalog.StaticProvider, error) {
	if path == "" {
		return catalog.LoadDefault()
	}
	return catalog.LoadFile(path)
}

// sweepCarts evicts idle carts until ctx is done.
func sweepCarts(ctx context.Context, carts *cart.Registry, every time.Duration, logger zerolog.Logger) {
	if every <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := carts.Sweep(); evicted > 0 {
				logger.Info().Int("evicted", evicted).Msg("cart_sweep")
			}
			obs.SetCartsActive(carts.Len())
		}
	}
}
