package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/billing"
	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
)

// SubscriptionHandler serves the paid plan pages on top of the billing
// provider.  The guards have already established whether the member holds
// the plan.
type SubscriptionHandler struct {
	Billing billing.Provider
}

func NewSubscriptionHandler(b billing.Provider) *SubscriptionHandler {
	return &SubscriptionHandler{Billing: b}
}

type paymentReq struct {
	PaymentMethod string `json:"payment_method" form:"payment_method"`
}

func member(c echo.Context) (uint64, error) {
	id, ok := middleware.Principal(c).MemberID()
	if !ok {
		return 0, access.ErrUnauthenticated
	}
	return id, nil
}

// Create shows the sign-up page.
func (h *SubscriptionHandler) Create(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"plan": access.PremiumPlan})
}

func (h *SubscriptionHandler) Store(c echo.Context) error {
	id, err := member(c)
	if err != nil {
		return err
	}
	var req paymentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	sub, err := h.Billing.CreateSubscription(c.Request().Context(), id, req.PaymentMethod, access.PremiumPlan)
	if err != nil {
		return err
	}
	return done(c, http.StatusCreated, "/", "You are now a premium member.", sub)
}

// Edit shows the current default payment method.
func (h *SubscriptionHandler) Edit(c echo.Context) error {
	id, err := member(c)
	if err != nil {
		return err
	}
	pm, err := h.Billing.DefaultPaymentMethod(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"plan": access.PremiumPlan, "payment_method": pm})
}

func (h *SubscriptionHandler) Update(c echo.Context) error {
	id, err := member(c)
	if err != nil {
		return err
	}
	var req paymentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.Billing.UpdateDefaultPaymentMethod(c.Request().Context(), id, req.PaymentMethod); err != nil {
		return err
	}
	return done(c, http.StatusOK, "/", "Your payment method has been updated.", nil)
}

// Cancel shows the cancellation page.
func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"plan": access.PremiumPlan})
}

func (h *SubscriptionHandler) Destroy(c echo.Context) error {
	id, err := member(c)
	if err != nil {
		return err
	}
	if err := h.Billing.CancelSubscription(c.Request().Context(), id, access.PremiumPlan); err != nil {
		return err
	}
	return done(c, http.StatusOK, "/", "Your premium membership has been cancelled.", nil)
}
