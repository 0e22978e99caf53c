package borrowing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	bs "github.com/AndriZhok/Library-Service-Project/service/borrowing"
	"github.com/AndriZhok/Library-Service-Project/service/policy"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/borrowings
func (h *Controller) Create(c echo.Context) error {
	var req CreateBorrowingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	borrowDate, _ := time.Parse("2006-01-02", req.BorrowDate)
	expected, _ := time.Parse("2006-01-02", req.ExpectedReturnDate)
	p, _ := c.Get("principal").(policy.Principal)

	out, err := h.Svc.Create(c.Request().Context(), p, req.BookID, borrowDate, expected)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrOutOfStock:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "book out of stock"})
		case bs.ErrMissingPrice:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "book has no daily fee"})
		case bs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case bs.ErrProvider:
			h.Log.Error("borrowing create provider failure", "err", err)
			return c.JSON(http.StatusBadGateway, echo.Map{"message": "payment provider unavailable"})
		default:
			h.Log.Error("borrowing create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"borrowing":   out.Borrowing,
		"payment_url": out.PaymentURL,
	})
}

// POST /v1/borrowings/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ReturnBorrowingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	returnedAt, _ := time.Parse("2006-01-02", req.ActualReturnDate)
	p, _ := c.Get("principal").(policy.Principal)

	b, err := h.Svc.Return(c.Request().Context(), p, id, returnedAt)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrAlreadyReturned:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "borrowing already returned"})
		case bs.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
		default:
			h.Log.Error("borrowing return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, b)
}

// GET /v1/borrowings?user_id=&is_active=
func (h *Controller) List(c echo.Context) error {
	p, _ := c.Get("principal").(policy.Principal)

	var q bs.ListQuery
	if v := c.QueryParam("user_id"); v != "" {
		uid, err := strconv.ParseInt(v, 10, 64)
		if err != nil || uid <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user_id"})
		}
		q.UserID = &uid
	}
	if v := c.QueryParam("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid is_active"})
		}
		q.IsActive = &active
	}

	rows, err := h.Svc.List(c.Request().Context(), p, q)
	if err != nil {
		h.Log.Error("borrowing list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrowings/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	p, _ := c.Get("principal").(policy.Principal)

	b, err := h.Svc.Detail(c.Request().Context(), p, id)
	if err != nil {
		if bs.Code(err) == bs.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
		}
		h.Log.Error("borrowing detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, b)
}
