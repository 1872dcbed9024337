package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"winsbygroup.com/custserver/internal/customer"
)

type Handler struct {
	svc    *customer.Service
	logger *log.Entry
}

func NewHandler(svc *customer.Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: log.WithField("component", "api"),
	}
}

func (h *Handler) ListCustomers(c echo.Context) error {
	out, err := h.svc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetCustomer(c echo.Context) error {
	id, err := customerID(c)
	if err != nil {
		return err
	}

	out, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateCustomer(c echo.Context) error {
	req, err := decodeCustomerRequest(c.Request().Body)
	if err != nil {
		return badBody(c, err)
	}

	out, err := h.svc.Create(c.Request().Context(), req.Fields())
	if err != nil {
		return h.fail(c, err)
	}

	location := strings.TrimSuffix(c.Request().URL.Path, "/") + "/" + strconv.FormatInt(out.ID, 10)
	c.Response().Header().Set(echo.HeaderLocation, location)
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) UpdateCustomer(c echo.Context) error {
	id, err := customerID(c)
	if err != nil {
		return err
	}

	req, err := decodeCustomerRequest(c.Request().Body)
	if err != nil {
		return badBody(c, err)
	}

	out, err := h.svc.Update(c.Request().Context(), id, req.Fields())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteCustomer(c echo.Context) error {
	id, err := customerID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func customerID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}
	return id, nil
}

func badBody(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]string{
		"error": "invalid request body: " + err.Error(),
	})
}

// fail maps service errors onto responses. Unexpected errors are logged and
// hidden from the client.
func (h *Handler) fail(c echo.Context, err error) error {
	var verr *customer.ValidationError
	switch {
	case errors.Is(err, customer.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": customer.ErrNotFound.Error(),
		})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":  verr.Reason,
			"fields": verr.Fields,
		})
	default:
		h.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": http.StatusText(http.StatusInternalServerError),
		})
	}
}
