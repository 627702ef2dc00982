package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/aigov-api/internal/common"
)

// NewStore wires a fixed window limiter store backed by Redis.
func NewStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
}

// API is the global per-client request budget applied to every API route.
type API struct {
	Limiter *limiter.Limiter
	OnError func(error)
}

// NewAPI builds the global limiter from a formatted rate such as "300-M".
func NewAPI(store limiter.Store, formatted string) (*API, error) {
	rate, err := limiter.NewRateFromFormatted(strings.TrimSpace(formatted))
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	return &API{Limiter: limiter.New(store, rate)}, nil
}

// Middleware keys requests by client address. Store failures let the
// request through after reporting to OnError.
func (a *API) Middleware(next http.Handler) http.Handler {
	if a == nil || a.Limiter == nil {
		return next
	}
	mw := stdlib.NewMiddleware(a.Limiter,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			return "api:" + common.ClientIP(r)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			var wait time.Duration
			if unix, err := strconv.ParseInt(w.Header().Get("X-RateLimit-Reset"), 10, 64); err == nil {
				wait = time.Until(time.Unix(unix, 0))
			}
			rejected(w, wait)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			if a.OnError != nil {
				a.OnError(err)
			}
			next.ServeHTTP(w, r)
		}),
	)
	return mw.Handler(next)
}
