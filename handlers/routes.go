package handlers

import (
	"jetlex_app_go/config"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the REST API. Setup must have been called first.
func RegisterRoutes(e *echo.Echo, cfg *config.Config) {
	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	limit := func(rl *middleware.RateLimiter) []echo.MiddlewareFunc {
		if !cfg.RateLimitEnabled {
			return nil
		}
		return []echo.MiddlewareFunc{rl.Middleware()}
	}
	can := middleware.RequireCapability

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", limit(middleware.APIRateLimiter)...)
	api.GET("/health", HealthHandler)

	// Public routes
	auth := api.Group("/auth")
	auth.POST("/register", RegisterHandler, append([]echo.MiddlewareFunc{
		middleware.OptionalAuth(deps.Tokens), middleware.AuditContext(),
	}, limit(middleware.RegisterRateLimiter)...)...)
	auth.POST("/login", LoginHandler, limit(middleware.LoginRateLimiter)...)
	auth.POST("/forgot-password", ForgotPasswordHandler, limit(middleware.LoginRateLimiter)...)
	auth.POST("/reset-password", ResetPasswordHandler, limit(middleware.LoginRateLimiter)...)
	api.POST("/newsletter/subscribe", AddSubscriberHandler, middleware.RequireCaptcha(cfg.TurnstileSecretKey))
	api.GET("/newsletter/unsubscribe", UnsubscribeHandler)

	// Everything below requires a valid bearer token
	protected := api.Group("", middleware.RequireAuth(deps.Tokens), middleware.AuditContext())

	protected.GET("/auth/profile", GetProfileHandler)
	protected.PUT("/auth/profile", UpdateProfileHandler)
	protected.POST("/auth/logout", LogoutHandler)

	users := protected.Group("/users", can(models.CapUserAdmin))
	users.GET("", ListUsersHandler)
	users.PUT("/:id", UpdateUserAccessHandler)
	users.GET("/security-alerts", SecurityAlertsHandler)
	protected.GET("/audit/:type/:id", AuditHistoryHandler, can(models.CapUserAdmin))
	protected.GET("/search", GlobalSearchHandler)

	clients := protected.Group("/clientes")
	clients.GET("", ListClientsHandler)
	clients.POST("", CreateClientHandler, can(models.CapClientWrite))
	clients.GET("/import/template", ClientImportTemplateHandler)
	clients.POST("/import", ImportClientsHandler, can(models.CapClientWrite))
	clients.GET("/:id", GetClientHandler)
	clients.PUT("/:id", UpdateClientHandler, can(models.CapClientWrite))
	clients.PUT("/:id/desactivar", DeactivateClientHandler, can(models.CapClientWrite))
	clients.DELETE("/:id", DeleteClientHandler, can(models.CapClientDelete))

	aircraft := protected.Group("/aeronaves")
	aircraft.GET("", ListAircraftHandler)
	aircraft.POST("", CreateAircraftHandler, can(models.CapAircraftWrite))
	aircraft.GET("/:id", GetAircraftHandler)
	aircraft.PUT("/:id", UpdateAircraftHandler, can(models.CapAircraftWrite))
	aircraft.DELETE("/:id", DeleteAircraftHandler, can(models.CapAircraftDelete))

	cases := protected.Group("/expedientes")
	cases.GET("", ListCasesHandler)
	cases.POST("", CreateCaseHandler, can(models.CapCaseWrite))
	cases.GET("/stats/dashboard", CaseStatsHandler)
	cases.GET("/export", ExportCasesHandler, can(models.CapReportExport))
	cases.GET("/:id", GetCaseHandler)
	cases.PUT("/:id", UpdateCaseHandler, can(models.CapCaseWrite))
	cases.DELETE("/:id", DeleteCaseHandler, can(models.CapCaseDelete))
	cases.GET("/:id/pdf", CaseSummaryPDFHandler, can(models.CapReportExport))
	cases.GET("/:id/documentos", ListCaseDocumentsHandler)
	cases.POST("/:id/documentos", UploadCaseDocumentHandler, can(models.CapDocumentWrite))

	protected.GET("/documentos/:id/download", DownloadDocumentHandler)
	protected.DELETE("/documentos/:id", DeleteDocumentHandler, can(models.CapDocumentWrite))

	phases := protected.Group("/fases")
	phases.POST("/expediente/:expedienteId/iniciar", StartPhasesHandler, can(models.CapPhaseWrite))
	phases.GET("/expediente/:expedienteId", ListPhasesHandler)
	phases.PUT("/:id", UpdatePhaseHandler, can(models.CapPhaseWrite))
	phases.GET("/dashboard/alertas", PhaseAlertsHandler)

	decisions := protected.Group("/decisiones")
	decisions.GET("/matriz", GetDecisionMatrixHandler)
	decisions.PUT("/matriz", ReplaceDecisionMatrixHandler, can(models.CapDecisionAdmin))
	decisions.POST("/consultar", ClassifyDecisionHandler)

	monitoring := protected.Group("/monitoreo")
	monitoring.GET("", ListMonitoringAlertsHandler)
	monitoring.POST("", CreateMonitoringAlertHandler, can(models.CapMonitoringWrite))
	monitoring.GET("/dashboard", MonitoringDashboardHandler)
	monitoring.POST("/scrape", ScrapeHandler, can(models.CapMonitoringWrite))
	monitoring.PUT("/:id", UpdateMonitoringAlertHandler, can(models.CapMonitoringWrite))
	monitoring.DELETE("/:id", DeleteMonitoringAlertHandler, can(models.CapMonitoringWrite))

	calendar := protected.Group("/calendar")
	calendar.GET("", ListEventsHandler)
	calendar.POST("", CreateEventHandler, can(models.CapEventWrite))
	calendar.GET("/recordatorios", UpcomingRemindersHandler)
	calendar.PUT("/:id", UpdateEventHandler, can(models.CapEventWrite))
	calendar.DELETE("/:id", DeleteEventHandler, can(models.CapEventWrite))
	calendar.GET("/:id/ics", EventICSHandler)

	osintRoutes := protected.Group("/osint", append([]echo.MiddlewareFunc{can(models.CapOSINTUse)}, limit(middleware.OSINTRateLimiter)...)...)
	osintRoutes.POST("/report", OSINTReportHandler)
	osintRoutes.POST("/quick-search", OSINTQuickSearchHandler)
	osintRoutes.GET("/history", OSINTHistoryHandler)

	newsletter := protected.Group("/newsletter")
	newsletter.GET("", ListNewslettersHandler)
	newsletter.POST("/generate", GenerateNewsletterHandler, can(models.CapNewsletterAdmin))
	newsletter.POST("/:id/send", SendNewsletterHandler, can(models.CapNewsletterAdmin))
	newsletter.GET("/subscribers", ListSubscribersHandler, can(models.CapNewsletterAdmin))
	newsletter.POST("/subscribers", AddSubscriberHandler, can(models.CapNewsletterAdmin))

	research := protected.Group("/investigaciones")
	research.GET("", ListResearchHandler)
	research.POST("", CreateResearchHandler, can(models.CapMonitoringWrite))
	research.PUT("/:id/estado", SetResearchStatusHandler, can(models.CapNewsletterAdmin))

	protected.GET("/notifications", GetNotificationsHandler)
	protected.PUT("/notifications/read-all", MarkAllNotificationsReadHandler)
	protected.PUT("/notifications/:id/read", MarkNotificationReadHandler)
}
