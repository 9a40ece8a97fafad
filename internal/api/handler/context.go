package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumina-chat/lumina-api/internal/api/middleware"
)

// ctxUserID extracts the identity injected by the Auth middleware. A missing
// id means the middleware did not run for this route; reject with 401 rather
// than calling a service with an empty identifier.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}
