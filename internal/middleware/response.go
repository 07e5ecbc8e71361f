package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// errJSON writes the application-wide error body. The same shape is
// produced by the handler package; middleware keeps its own writer so
// neither package depends on the other.
func errJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{
		"timestamp": time.Now().UTC(),
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"path":      c.Request().URL.Path,
	})
}
