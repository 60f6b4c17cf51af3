package controllers

import (
	"errors"
	"net/http"

	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/ctx"
	"github.com/sheapwilliams/lunch/pkg/middleware"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// List returns the user's committed orders, soonest date first.
func (oc *OrderController) List(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())

	orders, err := oc.orders.ListForUser(userID)
	if err != nil {
		c.Error(http.StatusInternalServerError, "Could not load orders")
		return
	}
	c.Success(map[string]interface{}{"orders": orders})
}

// Submit commits the pending cart directly to the ledger, no payment.
func (oc *OrderController) Submit(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())
	sess := c.Session()

	orders, rejections, err := oc.orders.SubmitCart(sess, userID)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			c.Error(http.StatusBadRequest, "Nothing to submit")
			return
		}
		c.Error(http.StatusInternalServerError, "Could not submit order, please retry")
		return
	}

	if err := c.SaveSession(); err != nil {
		c.Error(http.StatusInternalServerError, "Could not save cart")
		return
	}

	c.Created(map[string]interface{}{
		"orders":     orders,
		"rejections": rejections,
	})
}

// Delete removes the user's order for one date. Deleting a date with no
// order is a soft no-op.
func (oc *OrderController) Delete(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())

	removed, err := oc.orders.Delete(userID, c.Param("date"))
	if err != nil {
		c.Error(http.StatusInternalServerError, "Could not delete order")
		return
	}
	if !removed {
		c.SuccessMessage("No order for that date")
		return
	}
	c.SuccessMessage("Order deleted")
}

// Receipts lists past checkouts, one entry per payment reference.
func (oc *OrderController) Receipts(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())

	receipts, err := oc.orders.Receipts(userID)
	if err != nil {
		c.Error(http.StatusInternalServerError, "Could not load receipts")
		return
	}
	c.Success(map[string]interface{}{"receipts": receipts})
}

// Receipt returns one past checkout by payment reference, for printing.
func (oc *OrderController) Receipt(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())

	receipt, err := oc.orders.Receipt(userID, c.Param("ref"))
	if err != nil {
		if errors.Is(err, services.ErrReceiptNotFound) {
			c.NotFound("Receipt not found")
			return
		}
		c.Error(http.StatusInternalServerError, "Could not load receipt")
		return
	}
	c.Success(receipt)
}
