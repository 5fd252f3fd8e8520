package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type DiscountHTTP struct {
	Svc *service.DiscountService
}

func (h *DiscountHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.list")

	items, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "list_discounts_error", err)
	}
	return c.JSON(http.StatusOK, transport.DiscountListEnvelope{Success: true, Discounts: items})
}

func (h *DiscountHTTP) Save(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.save")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req transport.DiscountRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "save_discount_error", err)
	}

	d, err := h.Svc.Create(ctx, userID, service.DiscountInput{
		Code:    req.Code,
		Amount:  req.Amount,
		Kind:    req.Kind,
		MaxUses: req.MaxUses,
	})
	if err != nil {
		return fail(l, "save_discount_error", err)
	}

	l.Info("save_discount_success", "code", d.Code)
	return c.JSON(http.StatusCreated, transport.DiscountEnvelope{
		Success:  true,
		Discount: d,
		Message:  "discount code created",
	})
}

func (h *DiscountHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "discount.validate")

	d, err := h.Svc.ValidateAndConsume(ctx, c.Param("code"))
	if err != nil {
		return fail(l, "validate_discount_error", err)
	}

	l.Info("validate_discount_success", "code", d.Code, "uses", d.UseCount)
	return c.JSON(http.StatusOK, transport.DiscountEnvelope{Success: true, Discount: d})
}
