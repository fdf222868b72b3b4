package handlers

import (
	"fmt"
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthResponse is returned by register and login
type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates an account. The caller must be an admin or present the invite PIN.
func RegisterHandler(c echo.Context) error {
	var input services.RegisterInput
	if err := bind(c, &input); err != nil {
		return err
	}

	cfg := getConfig(c)
	registrar := middleware.GetCurrentUser(c)
	user, err := services.RegisterUser(db.DB, input, registrar, cfg.InvitePIN)
	if err != nil {
		return err
	}

	token, err := deps.Tokens.Issue(user, time.Now())
	if err != nil {
		return err
	}

	if deps.Mailer != nil {
		if email, err := services.BuildWelcomeEmail(user, cfg.FrontendURL); err != nil {
			log.Warn().Err(err).Str("component", "auth").Msg("failed to build welcome email")
		} else {
			services.SendEmailAsync(deps.Mailer, email)
		}
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"user", user.ID, user.Name, "Usuario registrado", nil, user)

	return c.JSON(http.StatusCreated, AuthResponse{
		Message: "Usuario creado exitosamente",
		Token:   token,
		User:    user,
	})
}

// LoginHandler exchanges credentials for a bearer token
func LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	now := time.Now()
	user, err := services.Login(db.DB, req.Email, req.Password, now)
	if err != nil {
		if services.KindOf(err) == services.KindAuth {
			if alert := services.Monitor.TrackFailedLogin(c.RealIP(), req.Email); alert != nil {
				notifySecurityAlert(alert)
			}
		}
		return err
	}
	services.Monitor.ResetFailedLogins(c.RealIP())

	token, err := deps.Tokens.Issue(user, now)
	if err != nil {
		return err
	}

	auditCtx := services.AuditContextFor(user)
	auditCtx.IPAddress = c.RealIP()
	auditCtx.UserAgent = c.Request().UserAgent()
	services.LogAuditEvent(db.DB, auditCtx, models.AuditActionLogin, "user", user.ID, user.Name, "Inicio de sesión", nil, nil)

	return c.JSON(http.StatusOK, AuthResponse{
		Message: "Login exitoso",
		Token:   token,
		User:    user,
	})
}

// GetProfileHandler returns the authenticated user
func GetProfileHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": middleware.GetCurrentUser(c),
	})
}

// UpdateProfileHandler edits the caller's own name, avatar and notification preference
func UpdateProfileHandler(c echo.Context) error {
	var input services.ProfileInput
	if err := bind(c, &input); err != nil {
		return err
	}

	user, err := services.UpdateProfile(db.DB, middleware.GetCurrentUser(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Perfil actualizado",
		"user":    user,
	})
}

// LogoutHandler records the logout. Tokens are stateless, so the client discards its copy.
func LogoutHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionLogout,
		"user", user.ID, user.Name, "Cierre de sesión", nil, nil)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logout exitoso"})
}

// ListUsersHandler lists every account for administrators
func ListUsersHandler(c echo.Context) error {
	users, err := services.ListUsers(db.DB)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"users": users})
}

// UpdateUserAccessHandler changes another account's role or active flag
func UpdateUserAccessHandler(c echo.Context) error {
	var input services.UserAccessInput
	if err := bind(c, &input); err != nil {
		return err
	}

	actor := middleware.GetCurrentUser(c)
	before, err := services.GetUserByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	user, err := services.UpdateUserAccess(db.DB, actor, c.Param("id"), input)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"user", user.ID, user.Name, "Acceso de usuario modificado", before, user)
	return c.JSON(http.StatusOK, user)
}

// SecurityAlertsHandler lists the recent failed-login alerts
func SecurityAlertsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"alerts": services.Monitor.RecentAlerts(),
	})
}

// notifySecurityAlert drops the alert into every active administrator's inbox
func notifySecurityAlert(alert *services.SecurityAlert) {
	var admins []models.User
	if err := db.DB.Where("role = ? AND is_active = ?", models.RoleAdmin, true).Find(&admins).Error; err != nil {
		log.Error().Err(err).Str("component", "security").Msg("failed to load administrators")
		return
	}

	notifications := services.NewNotificationService(db.DB)
	for i := range admins {
		n := &models.Notification{
			UserID:  &admins[i].ID,
			Type:    models.NotificationTypeSystem,
			Title:   "Alerta de seguridad",
			Message: fmt.Sprintf("%s desde %s (%d intentos)", alert.Reason, alert.IP, alert.Attempts),
		}
		if err := notifications.CreateNotification(n); err != nil {
			log.Error().Err(err).Str("component", "security").Msg("failed to store security notification")
		}
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordHandler emails a reset link. The answer is the same whether or not the address exists.
func ForgotPasswordHandler(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, token, err := services.RequestPasswordReset(db.DB, req.Email, time.Now())
	if err != nil {
		return err
	}
	if user != nil && deps.Mailer != nil {
		if email, err := services.BuildPasswordResetEmail(user, token, getConfig(c).FrontendURL); err != nil {
			log.Warn().Err(err).Str("component", "auth").Msg("failed to build reset email")
		} else {
			services.SendEmailAsync(deps.Mailer, email)
		}
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: "Si el email está registrado, recibirás un enlace para restablecer la contraseña",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPasswordHandler consumes a reset token and sets the new password
func ResetPasswordHandler(c echo.Context) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := services.ResetPassword(db.DB, req.Token, req.Password, time.Now())
	if err != nil {
		return err
	}

	auditCtx := services.AuditContextFor(user)
	auditCtx.IPAddress = c.RealIP()
	auditCtx.UserAgent = c.Request().UserAgent()
	services.LogAuditEvent(db.DB, auditCtx, models.AuditActionUpdate, "user", user.ID, user.Name, "Contraseña restablecida", nil, nil)

	return c.JSON(http.StatusOK, MessageResponse{Message: "Contraseña actualizada"})
}
