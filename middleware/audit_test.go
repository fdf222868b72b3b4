package middleware

import (
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAuditContext(t *testing.T, user *models.User, headers map[string]string) services.AuditContext {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/expedientes/x", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c := echo.New().NewContext(req, httptest.NewRecorder())
	if user != nil {
		c.Set(ContextKeyUser, user)
	}

	var seen services.AuditContext
	err := AuditContext()(func(c echo.Context) error {
		seen = GetAuditContext(c)
		return nil
	})(c)
	require.NoError(t, err)
	return seen
}

func TestAuditContextCapturesActor(t *testing.T) {
	user := &models.User{ID: "b3c0f6c2-0000-4000-8000-000000000001", Name: "Lucía Ferreyra", Role: models.RoleColaboradorA}
	actor := runAuditContext(t, user, map[string]string{
		"User-Agent":          "jetlex-web/2.1",
		echo.HeaderXRealIP:    "198.51.100.23",
		echo.HeaderXRequestID: "req-42",
	})

	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, "Lucía Ferreyra", actor.UserName)
	assert.Equal(t, models.RoleColaboradorA, actor.UserRole)
	assert.Equal(t, "198.51.100.23", actor.IPAddress)
	assert.Equal(t, "jetlex-web/2.1", actor.UserAgent)
	assert.Equal(t, "req-42", actor.RequestID)
}

func TestAuditContextAnonymousIsSystem(t *testing.T) {
	actor := runAuditContext(t, nil, nil)

	assert.Empty(t, actor.UserID)
	assert.Equal(t, "system", actor.UserName)
	assert.Equal(t, "system", actor.UserRole)
}

func TestGetAuditContextWithoutMiddleware(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, services.AuditContextFor(nil), GetAuditContext(c))
}
