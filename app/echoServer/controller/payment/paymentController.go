package payment

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	paymentsvc "github.com/AndriZhok/Library-Service-Project/service/payment"
	"github.com/AndriZhok/Library-Service-Project/service/policy"
)

type Controller struct {
	Svc paymentsvc.Service
	Log *slog.Logger
}

// POST /v1/borrowings/webhook
func (h *Controller) Webhook(c echo.Context) error {
	sig := c.Request().Header.Get("Stripe-Signature")
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "unreadable body"})
	}

	res, err := h.Svc.HandleWebhook(c.Request().Context(), sig, raw)
	if err != nil {
		if paymentsvc.Code(err) == paymentsvc.ErrBadSignature {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "webhook rejected"})
		}
		h.Log.Error("webhook processing error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"result": res})
}

// GET /v1/payments
func (h *Controller) List(c echo.Context) error {
	p, _ := c.Get("principal").(policy.Principal)
	rows, err := h.Svc.List(c.Request().Context(), p.UserID)
	if err != nil {
		h.Log.Error("payment list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/payments/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	p, _ := c.Get("principal").(policy.Principal)

	row, err := h.Svc.Detail(c.Request().Context(), id, p.UserID)
	if err != nil {
		if paymentsvc.Code(err) == paymentsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
		}
		h.Log.Error("payment detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, row)
}
