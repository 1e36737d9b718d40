package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// RequireOwner rejects requests without a verified owner session.
// It must run after auth.Sessions.Verifier.
func RequireOwner(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := auth.OwnerID(r.Context()); err != nil {
				renderError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware handles CORS headers. Credentials are allowed, so a
// wildcard origin echoes the request origin.
func CORSMiddleware(allowedOrigins []string) Middleware {
	methods := "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	headers := "Content-Type, Authorization, X-Request-ID"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, candidate := range allowed {
		if candidate == "*" || strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}

const maxTrackedClients = 10000

// RateLimiter is a per-client token bucket.
type RateLimiter struct {
	requestsPerMinute int
	now               func() time.Time

	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter allows requestsPerMinute requests per client address
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		now:               time.Now,
		buckets:           make(map[string]*tokenBucket),
	}
}

// Allow consumes a token for key
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, exists := rl.buckets[key]
	if !exists {
		if len(rl.buckets) >= maxTrackedClients {
			rl.evictIdle(now)
		}
		bucket = &tokenBucket{tokens: rl.requestsPerMinute, lastRefill: now}
		rl.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill)
	if refill := int(elapsed.Minutes() * float64(rl.requestsPerMinute)); refill > 0 {
		bucket.tokens = min(rl.requestsPerMinute, bucket.tokens+refill)
		bucket.lastRefill = now
	}

	if bucket.tokens <= 0 {
		return false
	}
	bucket.tokens--
	return true
}

// evictIdle drops clients whose bucket has fully refilled
func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, bucket := range rl.buckets {
		if now.Sub(bucket.lastRefill) >= time.Minute {
			delete(rl.buckets, key)
		}
	}
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, ErrorBody{Error: ErrorDetail{
				Code:    "rate_limit_exceeded",
				Message: fmt.Sprintf("Rate limit exceeded. Maximum %d requests per minute.", rl.requestsPerMinute),
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}
