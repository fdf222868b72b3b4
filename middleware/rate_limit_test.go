package middleware

import (
	"jetlex_app_go/models"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(Limit{Requests: 4, Window: time.Minute})

	assert.Equal(t, "default", rl.limit.Name)
	assert.NotEmpty(t, rl.limit.Message)
	require.NotNil(t, rl.limit.KeyFunc)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	c := echo.New().NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "ip:203.0.113.9", rl.limit.KeyFunc(c))
}

func TestRateLimiterAllow(t *testing.T) {
	clock := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(Limit{Requests: 3, Window: time.Minute})
	rl.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("ip:a")
		assert.True(t, allowed, "hit %d", i+1)
	}

	allowed, wait := rl.Allow("ip:a")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, wait)

	// Other keys keep their own quota
	allowed, _ = rl.Allow("ip:b")
	assert.True(t, allowed)

	clock = clock.Add(40 * time.Second)
	_, wait = rl.Allow("ip:a")
	assert.Equal(t, 20*time.Second, wait)

	// A new window opens once the old one closes
	clock = clock.Add(20 * time.Second)
	allowed, _ = rl.Allow("ip:a")
	assert.True(t, allowed)
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	call := func(h echo.HandlerFunc, user *models.User) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if user != nil {
			c.Set(ContextKeyUser, user)
		}
		return rec, h(c)
	}

	t.Run("RejectsOverQuota", func(t *testing.T) {
		rl := NewRateLimiter(Limit{Name: "login", Requests: 1, Window: time.Minute})
		fixed := time.Now()
		rl.now = func() time.Time { return fixed }
		h := rl.Middleware()(ok)

		rec, err := call(h, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec, err = call(h, nil)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusTooManyRequests, he.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("UserKeySeparatesOperators", func(t *testing.T) {
		h := NewRateLimiter(Limit{Requests: 1, Window: time.Minute, KeyFunc: UserKey}).Middleware()(ok)

		for _, id := range []string{"operador-1", "operador-2"} {
			_, err := call(h, &models.User{ID: id})
			assert.NoError(t, err)
		}
		_, err := call(h, &models.User{ID: "operador-1"})
		assert.Error(t, err)
	})
}
