package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"jetlex_app_go/config"
	"jetlex_app_go/db"
	"jetlex_app_go/services"
	"jetlex_app_go/services/osint"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Deps holds the long-lived collaborators shared by every handler
type Deps struct {
	Storage services.StorageProvider
	Mailer  services.Mailer
	Tokens  *services.TokenIssuer
	OSINT   *osint.Service
}

var deps Deps

// Setup installs the handler dependencies. It is called once at startup.
func Setup(d Deps) {
	deps = d
}

// MessageResponse is the body of endpoints that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// getConfig returns the configuration placed in the context by the server
func getConfig(c echo.Context) *config.Config {
	if cfg, ok := c.Get("config").(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}

// bind decodes the request body, reporting malformed input as a validation error.
// A value of the wrong JSON type is reported against its field.
func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return services.Validation(typeErr.Field, fmt.Sprintf("expected a %s", typeErr.Type))
		}
		return services.Validation("body", "invalid request body")
	}
	return nil
}

// pagination reads page and limit, defaulting to 1 and 10 and capping limit at 100
func pagination(c echo.Context) (int, int) {
	page, limit := 1, 10
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}

// listResponse builds the paginated envelope the frontend expects, with the rows under key
func listResponse(key string, rows interface{}, total int64, page, limit int) map[string]interface{} {
	return map[string]interface{}{
		key:           rows,
		"total":       total,
		"pages":       int(math.Ceil(float64(total) / float64(limit))),
		"currentPage": page,
	}
}

// queryTime parses an RFC 3339 timestamp or a plain date from the query string
func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := services.ParseDate(raw)
	if err != nil {
		return nil, services.Validation(name, "invalid date")
	}
	return &t, nil
}

// queryBool parses an optional boolean query parameter
func queryBool(c echo.Context, name string) *bool {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

// HealthHandler reports liveness and database reachability
func HealthHandler(c echo.Context) error {
	status := "ok"
	code := http.StatusOK
	if err := db.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]string{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
