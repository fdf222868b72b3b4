package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// maxTrackedKeys bounds the memory a single limiter can hold
const maxTrackedKeys = 10000

// Limit describes one fixed-window quota
type Limit struct {
	Name     string // used in logs
	Requests int
	Window   time.Duration
	// KeyFunc picks the bucket a request counts against. Defaults to the client IP.
	KeyFunc func(c echo.Context) string
	Message string
}

type bucket struct {
	hits    int
	resetAt time.Time
}

// RateLimiter counts requests per key in fixed windows.
// Buckets live in an expiring LRU so idle keys disappear without a sweeper goroutine.
type RateLimiter struct {
	limit   Limit
	now     func() time.Time
	mu      sync.Mutex
	buckets *expirable.LRU[string, *bucket]
}

// NewRateLimiter builds a limiter for l, filling in defaults
func NewRateLimiter(l Limit) *RateLimiter {
	if l.KeyFunc == nil {
		l.KeyFunc = IPKey
	}
	if l.Message == "" {
		l.Message = "Demasiadas solicitudes. Intente nuevamente más tarde."
	}
	if l.Name == "" {
		l.Name = "default"
	}
	return &RateLimiter{
		limit:   l,
		now:     time.Now,
		buckets: expirable.NewLRU[string, *bucket](maxTrackedKeys, nil, l.Window),
	}
}

// Allow records a hit for key. When the quota is spent it reports false and
// how long the caller has to wait.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, found := rl.buckets.Get(key)
	if !found || !now.Before(b.resetAt) {
		rl.buckets.Add(key, &bucket{hits: 1, resetAt: now.Add(rl.limit.Window)})
		return true, 0
	}
	if b.hits >= rl.limit.Requests {
		return false, b.resetAt.Sub(now)
	}
	b.hits++
	return true, 0
}

// Middleware rejects requests over the quota with 429 and a Retry-After header
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rl.limit.KeyFunc(c)
			allowed, wait := rl.Allow(key)
			if allowed {
				return next(c)
			}

			seconds := int((wait + time.Second - 1) / time.Second)
			c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
			log.Debug().
				Str("component", "ratelimit").
				Str("limit", rl.limit.Name).
				Str("key", key).
				Int("retry_after", seconds).
				Msg("request throttled")
			return echo.NewHTTPError(http.StatusTooManyRequests, rl.limit.Message)
		}
	}
}

// IPKey buckets requests by client address
func IPKey(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// UserKey buckets requests by authenticated user, falling back to the client address
func UserKey(c echo.Context) string {
	if user := GetCurrentUser(c); user != nil {
		return "user:" + user.ID
	}
	return IPKey(c)
}

var (
	// LoginRateLimiter guards login and password recovery: 5 per minute per address
	LoginRateLimiter = NewRateLimiter(Limit{
		Name:     "login",
		Requests: 5,
		Window:   time.Minute,
		Message:  "Demasiados intentos de inicio de sesión. Espere un minuto.",
	})

	// RegisterRateLimiter allows 3 sign-ups per hour per address
	RegisterRateLimiter = NewRateLimiter(Limit{
		Name:     "register",
		Requests: 3,
		Window:   time.Hour,
		Message:  "Demasiados registros desde esta dirección. Intente más tarde.",
	})

	// OSINTRateLimiter caps LLM-backed investigations at 10 per minute per user
	OSINTRateLimiter = NewRateLimiter(Limit{
		Name:     "osint",
		Requests: 10,
		Window:   time.Minute,
		KeyFunc:  UserKey,
		Message:  "Demasiadas investigaciones en curso. Espere antes de iniciar otra.",
	})

	// APIRateLimiter is the blanket quota on /api: 120 per minute per address
	APIRateLimiter = NewRateLimiter(Limit{
		Name:     "api",
		Requests: 120,
		Window:   time.Minute,
	})
)
