// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

// RateLimitConfig sizes a limiter. LimitFunc, when set, picks the limit per
// request and wins over Limit.
type RateLimitConfig struct {
	Limit     redis_rate.Limit
	LimitFunc func(*http.Request) (string, redis_rate.Limit)
	KeyFunc   func(*http.Request) string
	FailOpen  bool
}

// RateLimiter counts requests in redis and falls back to an in-process
// token bucket while redis is unreachable.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		label, limit := rl.limitFor(r)
		key := rl.config.KeyFunc(r)

		res, err := rl.allow(r.Context(), key, limit)
		if err != nil {
			if rl.config.FailOpen {
				slog.WarnContext(r.Context(), "rate limiter unavailable, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		if label != "" {
			w.Header().Set("X-RateLimit-Plan", label)
		}
		setRateLimitHeaders(w, res, limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limitFor(r *http.Request) (string, redis_rate.Limit) {
	if rl.config.LimitFunc != nil {
		return rl.config.LimitFunc(r)
	}
	return "", rl.config.Limit
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, limit)
	if err != nil {
		return rl.fallback.allow(key, limit)
	}
	return res, nil
}

// PlanLimit is the request budget granted to a subscription plan.
type PlanLimit struct {
	RequestsPerMinute int
	BurstSize         int
}

var DefaultPlanLimits = map[string]PlanLimit{
	"starter":      {RequestsPerMinute: 120, BurstSize: 20},
	"professional": {RequestsPerMinute: 600, BurstSize: 100},
	"enterprise":   {RequestsPerMinute: 3000, BurstSize: 500},
}

const fallbackPlan = "starter"

// PlanRateLimiter throttles authenticated callers per tenant, sized by the
// plan carried in their access token. Platform callers without a tenant
// are keyed by user id.
func PlanRateLimiter(
	rdb *redis.Client,
	plans map[string]PlanLimit,
) func(http.Handler) http.Handler {
	return NewRateLimiter(rdb, RateLimitConfig{
		LimitFunc: planLimit(plans),
		KeyFunc:   KeyByTenant,
		FailOpen:  true,
	}).Handler
}

func planLimit(plans map[string]PlanLimit) func(*http.Request) (string, redis_rate.Limit) {
	return func(r *http.Request) (string, redis_rate.Limit) {
		name := GetUserPlan(r.Context())
		pl, ok := plans[name]
		if !ok {
			name = fallbackPlan
			pl = plans[fallbackPlan]
		}
		return name, PerMinute(pl.RequestsPerMinute, pl.BurstSize)
	}
}

func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return "ratelimit:ip:" + strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ratelimit:ip:" + xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	return "ratelimit:ip:" + ip
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

func KeyByTenant(r *http.Request) string {
	if tenantID := GetUserTenantID(r.Context()); tenantID != "" {
		return "ratelimit:tenant:" + tenantID
	}
	return KeyByUser(r)
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy",
		fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSONError(w, core.RateLimitedError(retryAfter))
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter keeps one token bucket per key. Buckets idle for longer than
// bucketTTL are swept on the next call after sweepEvery has passed.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

const (
	sweepEvery = 5 * time.Minute
	bucketTTL  = 10 * time.Minute
)

func newLocalLimiter() *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	if limit.Period <= 0 || limit.Rate <= 0 {
		return nil, fmt.Errorf("invalid limit %s", limit)
	}
	perSec := float64(limit.Rate) / limit.Period.Seconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{
		Limit:      limit,
		RetryAfter: -1,
		ResetAfter: time.Duration(float64(time.Second) / perSec),
	}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = res.ResetAfter
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)

	return res, nil
}

func (l *localLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now

	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > bucketTTL {
			delete(l.buckets, key)
		}
	}
}
