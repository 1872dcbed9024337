package api

import (
	"github.com/labstack/echo/v4"

	"winsbygroup.com/custserver/internal/middleware"
)

func RegisterRoutes(g *echo.Group, h *Handler) {
	requireJSON := middleware.RequireJSON()

	// Customers
	g.GET("/customers", h.ListCustomers)
	g.GET("/customers/:id", h.GetCustomer)
	g.POST("/customers", h.CreateCustomer, requireJSON)
	g.PUT("/customers/:id", h.UpdateCustomer, requireJSON)
	g.DELETE("/customers/:id", h.DeleteCustomer)
}
