package handlers

import (
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type subscriberRequest struct {
	Email string `json:"email"`
	Name  string `json:"nombre"`
}

type researchStatusRequest struct {
	Status string `json:"estado"`
}

func newsletterService(c echo.Context) *services.NewsletterService {
	return services.NewNewsletterService(db.DB, deps.Mailer, getConfig(c).FrontendURL)
}

// GenerateNewsletterHandler builds a draft from the last week's alerts and research
func GenerateNewsletterHandler(c echo.Context) error {
	newsletter, err := newsletterService(c).Generate(time.Now())
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"newsletter", newsletter.ID, newsletter.Title, "Newsletter generado", nil, nil)
	return c.JSON(http.StatusCreated, newsletter)
}

// SendNewsletterHandler delivers a draft to every active subscriber
func SendNewsletterHandler(c echo.Context) error {
	newsletter, err := newsletterService(c).Send(c.Request().Context(), c.Param("id"), time.Now())
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"newsletter", newsletter.ID, newsletter.Title, "Newsletter enviado", nil, nil)
	return c.JSON(http.StatusOK, newsletter)
}

func ListNewslettersHandler(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	newsletters, err := newsletterService(c).ListNewsletters(limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"newsletters": newsletters})
}

func ListSubscribersHandler(c echo.Context) error {
	activeOnly := false
	if b := queryBool(c, "activo"); b != nil {
		activeOnly = *b
	}
	subs, err := newsletterService(c).ListSubscribers(activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"suscriptores": subs,
		"total":        len(subs),
	})
}

// AddSubscriberHandler subscribes an address. It is also mounted publicly for the landing form.
func AddSubscriberHandler(c echo.Context) error {
	var req subscriberRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	sub, err := newsletterService(c).AddSubscriber(req.Email, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

// UnsubscribeHandler deactivates the address given in the email query parameter
func UnsubscribeHandler(c echo.Context) error {
	if err := newsletterService(c).Unsubscribe(c.QueryParam("email")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Suscripción cancelada"})
}

// ListResearchHandler lists research articles, optionally by estado
func ListResearchHandler(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := services.ListResearch(db.DB, c.QueryParam("estado"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"investigaciones": items})
}

func CreateResearchHandler(c echo.Context) error {
	var input services.ResearchInput
	if err := bind(c, &input); err != nil {
		return err
	}

	research, err := services.CreateResearch(db.DB, input, middleware.GetCurrentUser(c))
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"research", research.ID, research.Title, "Investigación creada", nil, nil)
	return c.JSON(http.StatusCreated, research)
}

// SetResearchStatusHandler moves an article through its editorial states
func SetResearchStatusHandler(c echo.Context) error {
	var req researchStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	research, err := services.SetResearchStatus(db.DB, c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"research", research.ID, research.Title, "Estado de investigación: "+research.Status, nil, nil)
	return c.JSON(http.StatusOK, research)
}
