package middleware

import (
	"jetlex_app_go/db"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeyClaims is the context key for the verified token claims
	ContextKeyClaims = "claims"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authenticate resolves the bearer token to an active user
func authenticate(c echo.Context, issuer *services.TokenIssuer) (*models.User, *services.TokenClaims, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, nil, services.Unauthorized("authentication required")
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	user, err := services.GetActiveUser(db.DB, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(user.PasswordChangedAt.Truncate(time.Second)) {
		return nil, nil, services.Unauthorized("token revoked")
	}
	return user, claims, nil
}

// RequireAuth is middleware that requires a valid token for an active user
func RequireAuth(issuer *services.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, claims, err := authenticate(c, issuer)
			if err != nil {
				services.LogSecurityEvent("AUTH_REJECTED", "", c.Request().Method+" "+c.Path()+" from "+c.RealIP())
				return err
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

// OptionalAuth loads the user when a valid token is present and continues anonymously otherwise
func OptionalAuth(issuer *services.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if bearerToken(c) != "" {
				if user, claims, err := authenticate(c, issuer); err == nil {
					c.Set(ContextKeyUser, user)
					c.Set(ContextKeyClaims, claims)
				}
			}
			return next(c)
		}
	}
}

// RequireCapability is middleware that requires the user's role to grant a capability.
// It must run after RequireAuth.
func RequireCapability(capability models.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return services.Unauthorized("authentication required")
			}
			if !user.Can(capability) {
				services.LogSecurityEvent("CAPABILITY_DENIED", user.ID, string(capability))
				return services.Forbidden("insufficient permissions")
			}
			return next(c)
		}
	}
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}
