package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"winsbygroup.com/custserver/internal/customer"
	"winsbygroup.com/custserver/internal/middleware"
)

// Handler handles web UI requests
type Handler struct {
	svc *customer.Service
}

// NewHandler creates a new web handler
func NewHandler(svc *customer.Service) *Handler {
	return &Handler{svc: svc}
}

// --------------------------
// Customers
// --------------------------

func (h *Handler) ListCustomers(c echo.Context) error {
	ctx := c.Request().Context()
	customers, err := h.svc.List(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	viewCustomers := FromDomainCustomers(customers)
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	if isHTMX(c) {
		return CustomersTable(viewCustomers).Render(ctx, c.Response())
	}
	return CustomersPage(viewCustomers, middleware.GetVersion(ctx)).Render(ctx, c.Response())
}

// isHTMX reports whether the request came from htmx and wants a fragment.
func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
