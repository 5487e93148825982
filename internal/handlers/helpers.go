// Package handlers provides the HTTP API for the rent manager server.
package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/dhruv200010/rentmanager/internal/auth"
)

// requireUserID extracts the authenticated user id from the request context.
func requireUserID(c echo.Context) (string, error) {
	return auth.UserIDFromContext(c)
}
