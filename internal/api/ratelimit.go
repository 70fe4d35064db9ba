package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/vnequity/internal/metrics"
	"github.com/wonny/vnequity/pkg/config"
	"github.com/wonny/vnequity/pkg/logger"
	"github.com/wonny/vnequity/pkg/redis"
)

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// DefaultLimiterIdle is how long a client bucket is kept without requests
const DefaultLimiterIdle = 10 * time.Minute

// LocalLimiter keeps one token bucket per client in process memory.
// Buckets idle for longer than the idle window are dropped by Sweep.
type LocalLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter allows rps requests per second per client with the given burst
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    DefaultLimiterIdle,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

// WithIdle sets the idle window after which a client bucket is evicted
func (l *LocalLimiter) WithIdle(idle time.Duration) *LocalLimiter {
	if idle > 0 {
		l.idle = idle
	}
	return l
}

// Allow takes one token from key's bucket
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	l.mu.Lock()
	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()
	return b.limiter.AllowN(now, 1), nil
}

// Sweep drops buckets of clients idle longer than the idle window and
// returns how many were removed
func (l *LocalLimiter) Sweep() int {
	cutoff := l.now().Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.clients {
		if b.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// SharedLimiter counts requests in Redis so every replica shares the budget
type SharedLimiter struct {
	limiter *redis.RateLimiter
}

// NewSharedLimiter allows rps requests per second per client across replicas
func NewSharedLimiter(client *redis.Client, rps float64, burst int) *SharedLimiter {
	limit := int(rps)
	if burst > limit {
		limit = burst
	}
	return &SharedLimiter{limiter: redis.NewRateLimiter(client, "vnequity:api", limit, time.Second)}
}

// Allow records one request for key
func (l *SharedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, _, err := l.limiter.Allow(ctx, key)
	return ok, err
}

// NewLimiter picks the shared limiter when Redis is enabled, else the local
// one. Nil when rate limiting is off.
func NewLimiter(cfg config.APIConfig, client *redis.Client) Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	if client != nil && client.Enabled() {
		return NewSharedLimiter(client, cfg.RateLimit, cfg.RateBurst)
	}
	return NewLocalLimiter(cfg.RateLimit, cfg.RateBurst)
}

// clientKey identifies the caller by forwarded or remote IP
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitMiddleware rejects clients over budget with 429. A limiter error
// lets the request through.
func rateLimitMiddleware(limiter Limiter, reg *metrics.Registry, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.WithError(err).WithField("client", key).Warn("Rate limiter unavailable")
				allowed = true
			}
			if !allowed {
				if reg != nil {
					reg.RecordRateLimited()
				}
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
