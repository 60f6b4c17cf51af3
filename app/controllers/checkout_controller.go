package controllers

import (
	"errors"
	"net/http"

	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/ctx"
	"github.com/sheapwilliams/lunch/pkg/middleware"
	"github.com/sheapwilliams/lunch/pkg/payment"
)

type CheckoutController struct {
	checkout *services.CheckoutService
}

func NewCheckoutController(checkout *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

// Checkout creates a payment intent for the pending cart and hands back the
// client secret to complete payment in the browser.
func (cc *CheckoutController) Checkout(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())

	result, err := cc.checkout.Checkout(c.Context(), c.Session(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			c.Error(http.StatusBadRequest, "Your cart is empty")
		case errors.Is(err, payment.ErrUnavailable):
			c.Error(http.StatusBadGateway, "Payment service unavailable, please retry")
		default:
			c.Error(http.StatusInternalServerError, "Checkout failed, please retry")
		}
		return
	}

	c.Success(result)
}

// Confirmation finishes a checkout once the payment processor reports the
// intent as succeeded. Safe to revisit: an already-applied reference just
// returns its receipt again. An anonymous visitor gets a 401 carrying the
// login path; the parked reference makes login resume here automatically.
func (cc *CheckoutController) Confirmation(c *ctx.Context) {
	ref := c.Query("payment_intent")
	if ref == "" {
		c.Error(http.StatusBadRequest, "Missing payment_intent")
		return
	}

	userID, _ := middleware.UserIDFromCtx(c.Context())
	sess := c.Session()

	receipt, err := cc.checkout.Confirm(c.Context(), sess, userID, ref)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAuthRequired):
			// Persist the parked reference before redirecting.
			if saveErr := c.SaveSession(); saveErr != nil {
				c.Error(http.StatusInternalServerError, "Could not save session")
				return
			}
			c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"status":   http.StatusUnauthorized,
				"message":  "Log in to finish your order",
				"redirect": "/api/login",
			})
		case errors.Is(err, services.ErrPaymentIncomplete):
			c.Error(http.StatusPaymentRequired, "Payment has not completed")
		case errors.Is(err, services.ErrOrderInfoMissing):
			c.Error(http.StatusBadRequest, "Order information not found")
		case errors.Is(err, services.ErrReceiptNotFound):
			// The payment was applied, but to a different account.
			c.NotFound("No receipt for this account")
		case errors.Is(err, payment.ErrUnavailable):
			c.Error(http.StatusBadGateway, "Payment service unavailable, please retry")
		default:
			c.Error(http.StatusInternalServerError, "Confirmation failed, please retry")
		}
		return
	}

	if err := c.SaveSession(); err != nil {
		c.Error(http.StatusInternalServerError, "Could not save session")
		return
	}

	c.Success(receipt)
}
