package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("layer", "handler")

var statusByCode = map[string]int{
	models.CodeValidation:       http.StatusBadRequest,
	models.CodeUnauthorized:     http.StatusUnauthorized,
	models.CodeForbidden:        http.StatusForbidden,
	models.CodeNotFound:         http.StatusNotFound,
	models.CodeInvalidOperation: http.StatusBadRequest,
	models.CodeConflict:         http.StatusConflict,
	models.CodeStorage:          http.StatusInternalServerError,
}

// StatusOf returns the HTTP status err is rendered with.
func StatusOf(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if status, ok := statusByCode[appErr.Code]; ok {
			return status
		}
		return http.StatusInternalServerError
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error as {"success": false, "message", "code"}.
// Storage failures and unknown errors are logged and shown generically.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := StatusOf(err)
	message := "Internal server error"
	code := "INTERNAL_ERROR"

	var appErr *models.AppError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		message, code = appErr.Message, appErr.Code
		if appErr.Code == models.CodeStorage {
			logError(c, err)
		}
	case errors.As(err, &he):
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(he.Code)
		}
		code = codeForStatus(he.Code)
	default:
		logError(c, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, echo.Map{
			"success": false,
			"message": message,
			"code":    code,
		})
	}
	if err != nil {
		log.WithError(err).Error("failed to write error response")
	}
}

func logError(c echo.Context, err error) {
	log.WithError(err).
		WithField("method", c.Request().Method).
		WithField("path", c.Path()).
		WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Error("request failed")
}

// codeForStatus turns "Request Entity Too Large" into REQUEST_ENTITY_TOO_LARGE.
func codeForStatus(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_" + strconv.Itoa(status)
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

// bind decodes the request body into req and runs the registered validator.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return models.NewValidationError("Invalid request payload")
	}
	return c.Validate(req)
}

// queryInt reads an integer query parameter; absent or malformed values give 0.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

// paramID parses a numeric path parameter as a user or notification id.
func paramID(c echo.Context, name, resource string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError(resource, raw)
	}
	return uint(id), nil
}
