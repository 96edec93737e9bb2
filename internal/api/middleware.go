package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFrom returns the request id stored by the middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses the caller's X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// requestLogger logs method, path, status and latency for each request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		zap.L().Info("http request",
			zap.String("component", "api"),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// limiterIdleTTL is how long an unused client bucket is kept.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters hands out one token bucket per client address. Buckets idle
// for longer than limiterIdleTTL are swept on access.
type clientLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiters(perSecond float64, burst int) *clientLimiters {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiters{
		limit:     limit,
		burst:     burst,
		limiters:  make(map[string]*clientLimiter),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= limiterIdleTTL {
		c.sweep(now)
	}

	l, ok := c.limiters[key]
	if !ok {
		l = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.limiters[key] = l
	}
	l.lastSeen = now
	return l.limiter
}

func (c *clientLimiters) sweep(now time.Time) {
	for key, l := range c.limiters {
		if now.Sub(l.lastSeen) >= limiterIdleTTL {
			delete(c.limiters, key)
		}
	}
	c.lastSweep = now
}

func (c *clientLimiters) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiters.get(clientKey(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
