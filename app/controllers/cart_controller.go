package controllers

import (
	"net/http"

	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/ctx"
	"github.com/sheapwilliams/lunch/pkg/middleware"
)

type CartController struct {
	cart *services.CartService
}

func NewCartController(cart *services.CartService) *CartController {
	return &CartController{cart: cart}
}

// Show returns the pending cart and its running total.
func (cc *CartController) Show(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())
	cart := cc.cart.Snapshot(c.Session(), userID)

	c.Success(map[string]interface{}{
		"cart":  cart,
		"total": cc.cart.Total(cart),
	})
}

type cartUpdateInput struct {
	Selections []services.Selection `json:"selections" validate:"required"`
}

// Update applies a batch of selections. Valid pairs commit, invalid pairs
// come back in "rejections"; the batch never aborts as a whole.
func (cc *CartController) Update(c *ctx.Context) {
	var in cartUpdateInput
	if !c.BindJSON(&in) {
		return
	}

	userID, _ := middleware.UserIDFromCtx(c.Context())
	sess := c.Session()

	rejections := cc.cart.Apply(sess, userID, in.Selections)

	if err := c.SaveSession(); err != nil {
		c.Error(http.StatusInternalServerError, "Could not save cart")
		return
	}

	cart := cc.cart.Snapshot(sess, userID)
	c.Success(map[string]interface{}{
		"cart":       cart,
		"total":      cc.cart.Total(cart),
		"rejections": rejections,
	})
}

// Remove drops one date's selection.
func (cc *CartController) Remove(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())
	sess := c.Session()

	cc.cart.Remove(sess, userID, c.Param("date"))

	if err := c.SaveSession(); err != nil {
		c.Error(http.StatusInternalServerError, "Could not save cart")
		return
	}
	c.SuccessMessage("Selection removed")
}

// Clear empties the cart.
func (cc *CartController) Clear(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())
	sess := c.Session()

	cc.cart.Clear(sess, userID)

	if err := c.SaveSession(); err != nil {
		c.Error(http.StatusInternalServerError, "Could not save cart")
		return
	}
	c.SuccessMessage("Cart cleared")
}
