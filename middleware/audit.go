package middleware

import (
	"jetlex_app_go/services"

	"github.com/labstack/echo/v4"
)

const ContextKeyAuditContext = "audit_context"

// AuditContext records who is acting, and from where, so handlers can attribute audit entries.
// It must run after the auth middleware has resolved the current user.
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := services.AuditContextFor(GetCurrentUser(c))
			actor.IPAddress = c.RealIP()
			actor.UserAgent = c.Request().UserAgent()
			actor.RequestID = requestID(c)

			c.Set(ContextKeyAuditContext, actor)
			return next(c)
		}
	}
}

// GetAuditContext returns the actor stored by AuditContext, or a system actor when
// the route is not behind that middleware.
func GetAuditContext(c echo.Context) services.AuditContext {
	if actor, ok := c.Get(ContextKeyAuditContext).(services.AuditContext); ok {
		return actor
	}
	return services.AuditContextFor(nil)
}

// requestID prefers the id echo's RequestID middleware put on the response
func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
