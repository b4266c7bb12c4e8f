package middleware

import (
	"modelPilot/pkg/logger"
	"net/http"

	jsonres "modelPilot/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler catches everything the handlers did not map themselves,
// echo routing errors included.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	var label string
	switch code {
	case http.StatusNotFound:
		label = "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		label = "METHOD_NOT_ALLOWED"
	case http.StatusBadRequest:
		label = "BAD_REQUEST"
	case http.StatusUnauthorized:
		label = "UNAUTHORIZED"
	case http.StatusForbidden:
		label = "FORBIDDEN"
	default:
		label = "INTERNAL_SERVER_ERROR"
	}

	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled error", "error", err, "path", c.Path())
	}

	if jsonErr := c.JSON(code, jsonres.Error(label, message, nil)); jsonErr != nil {
		logger.Error("Failed to write error response", "error", jsonErr)
	}
}
