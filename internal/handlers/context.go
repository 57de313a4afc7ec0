package handlers

import "github.com/labstack/echo/v4"

// getUserIDFromContext returns the authenticated user's id set by the JWT
// middleware, or 0 when the request carries no verified identity.
func getUserIDFromContext(c echo.Context) uint {
	if id, ok := c.Get("userID").(uint); ok {
		return id
	}
	return 0
}
