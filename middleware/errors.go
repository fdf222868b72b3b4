package middleware

import (
	"errors"
	"jetlex_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// HTTPStatus maps an error to the status code sent to the client
func HTTPStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	switch services.KindOf(err) {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnsupported, services.KindValidation:
		return http.StatusBadRequest
	case services.KindConflict:
		return http.StatusConflict
	case services.KindDependency:
		return http.StatusBadGateway
	case services.KindAuth:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler replaces echo's default handler so every error leaves as ErrorResponse.
// Internal errors are logged and their details are not exposed.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := HTTPStatus(err)
	body := ErrorResponse{Success: false, Message: http.StatusText(status)}

	var he *echo.HTTPError
	var se *services.Error
	switch {
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		}
	case errors.As(err, &se) && status != http.StatusInternalServerError:
		body.Message = se.Message
		body.Field = se.Field
		if status == http.StatusBadGateway {
			log.Error().Err(err).Str("component", "http").Str("path", c.Path()).Msg("dependency failure")
		}
	default:
		log.Error().Err(err).Str("component", "http").Str("path", c.Path()).Msg("unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Error().Err(err).Str("component", "http").Msg("failed to write error response")
	}
}
