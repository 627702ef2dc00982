package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aigov-api/internal/common"
	"github.com/noah-isme/aigov-api/internal/config"
	"github.com/noah-isme/aigov-api/internal/health"
	"github.com/noah-isme/aigov-api/internal/obs"
	"github.com/noah-isme/aigov-api/internal/security"
)

func newRouter(cfg *config.Config, d *deps, tracingEnabled bool, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.Obs.EnablePrometheus {
		buckets := obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets)
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, buckets, nil)}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction(), HSTSIncludeSubdomains: true, NoStore: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if cfg.Obs.EnablePrometheus {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.EnablePprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPassword))
	}

	healthHandler := health.Handler{Probes: map[string]health.Probe{"redis": health.RedisProbe(d.redis)}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.With(d.authMW.RedirectUnauthenticated("/signin")).Get("/", landing)
	r.With(d.authMW.RedirectAuthenticated("/")).Get("/signin", d.auth.SignInPage)

	idem := common.Idem{R: d.redis, TTL: cfg.IdempotencyTTL}
	csrf := security.CSRF{SessionCookie: cfg.AccessCookieName}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(d.apiLimiter.Middleware)
		v.Use(csrf.Middleware)
		v.Use(d.authMW.Authenticate)

		v.Get("/categories", d.catalog.Categories)
		v.Get("/products", d.catalog.Products)
		v.Get("/products/{id}", d.catalog.ProductDetail)

		v.Route("/auth", func(a chi.Router) {
			a.With(d.signInLimiter.Middleware).Post("/signin", d.auth.SignIn)
			a.Group(func(protected chi.Router) {
				protected.Use(d.authMW.RequireAuth)
				protected.Post("/signout", d.auth.SignOut)
				protected.Get("/me", d.auth.Me)
			})
		})

		v.Group(func(authR chi.Router) {
			authR.Use(d.authMW.RequireAuth)

			authR.Route("/cart", func(c chi.Router) {
				c.Get("/", d.cartHandler.Get)
				c.Get("/items/{id}", d.cartHandler.Item)
				c.Group(func(w chi.Router) {
					w.Use(idem.Middleware)
					w.Delete("/", d.cartHandler.Clear)
					w.Post("/items", d.cartHandler.AddItem)
					w.Patch("/items/{id}", d.cartHandler.UpdateQuantity)
					w.Post("/items/{id}/increment", d.cartHandler.Increment)
					w.Post("/items/{id}/decrement", d.cartHandler.Decrement)
					w.Delete("/items/{id}", d.cartHandler.RemoveItem)
				})
			})

			authR.Get("/dashboard", d.governance.Dashboard)
			authR.Get("/projects", d.governance.Projects)
			authR.Get("/projects/{id}", d.governance.Project)

			authR.Get("/activity", d.activity.Activity)

			authR.Get("/notifications", d.feed.List)
			authR.Post("/notifications/read-all", d.feed.MarkAllRead)
			authR.Post("/notifications/{id}/read", d.feed.MarkRead)
		})
	})

	return r
}

// landing sends signed-in browsers to their dashboard.
func landing(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/api/v1/dashboard", http.StatusSeeOther)
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorised", nil)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
