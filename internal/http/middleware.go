package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/auth"
	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/metrics"
	"github.com/tazhibayda/profile-service/internal/response"
)

const (
	requestIDHeader = "X-Request-ID"
	authUserKey     = "auth_user"
)

// RequestID reuses the caller's X-Request-ID or mints one, and puts it on the
// response and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(applog.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		applog.WithDD(c.Request.Context(), log).Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", ClientIP(c)),
		)
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.InFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// AuthRequired verifies the bearer token and stores the caller on the context.
func AuthRequired(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		uc, err := h.Auth.Verify(c.Request.Context(), auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Set(authUserKey, uc)
		c.Next()
	}
}

func currentUser(c *gin.Context) *auth.UserContext {
	v, _ := c.Get(authUserKey)
	uc, _ := v.(*auth.UserContext)
	return uc
}

// OwnerOnly lets a caller modify only the profile named by the :id parameter.
func OwnerOnly(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		uc := currentUser(c)
		if uc == nil || uc.ProfileID != c.Param("id") {
			h.fail(c, apperr.Forbidden("You can only modify your own profile."))
			return
		}
		c.Next()
	}
}

type bucket struct {
	tokens  int
	updated time.Time
}

// RateLimiter is a per-key fixed window held in process memory. Buckets whose
// window has passed are swept at most once per window.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket), rate: rate, window: window, now: time.Now}
}

func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if now.Sub(rl.lastSweep) > rl.window {
		for k, b := range rl.buckets {
			if now.Sub(b.updated) > rl.window {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.updated) > rl.window {
		rl.buckets[key] = &bucket{tokens: 1, updated: now}
		return true
	}
	if b.tokens < rl.rate {
		b.tokens++
		return true
	}
	return false
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}

// Limiter decides whether key may make another request.
type Limiter interface {
	Allow(c *gin.Context, key string) bool
}

// LocalLimiter adapts RateLimiter to Limiter.
type LocalLimiter struct{ RL *RateLimiter }

func (l LocalLimiter) Allow(_ *gin.Context, key string) bool { return l.RL.Allow(key) }

// WindowCounter counts hits in a window shared between replicas.
type WindowCounter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SharedLimiter enforces the budget through a WindowCounter and falls back to
// the in-process limiter while the counter is unavailable.
type SharedLimiter struct {
	Counter  WindowCounter
	Limit    int
	Window   time.Duration
	Fallback *RateLimiter
	Log      *zap.Logger
}

func (l SharedLimiter) Allow(c *gin.Context, key string) bool {
	ok, err := l.Counter.Allow(c.Request.Context(), key, l.Limit, l.Window)
	if err != nil {
		applog.WithDD(c.Request.Context(), l.Log).Warn("shared rate limit unavailable", zap.Error(err))
		return l.Fallback.Allow(key)
	}
	return ok
}

// RateLimit rejects callers over their budget with 429.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.Allow(c, c.FullPath()+"|"+ClientIP(c)) {
			c.Next()
			return
		}
		metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Error(http.StatusTooManyRequests, "Too many requests."))
	}
}
