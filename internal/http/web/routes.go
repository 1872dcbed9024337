package web

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all web UI routes
func RegisterRoutes(e *echo.Group, h *Handler) {
	// Customers
	e.GET("/customers", h.ListCustomers)
	e.GET("", h.ListCustomers)
	e.GET("/", h.ListCustomers)
}
