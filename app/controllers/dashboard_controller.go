package controllers

import (
	"net/http"

	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/ctx"
	"github.com/sheapwilliams/lunch/pkg/middleware"
)

// DashboardController assembles the single view a user lands on: the week's
// menu, their pending cart, and their committed orders.
type DashboardController struct {
	menu   *services.MenuService
	cutoff *services.CutoffPolicy
	cart   *services.CartService
	orders *services.OrderService
}

func NewDashboardController(menu *services.MenuService, cutoff *services.CutoffPolicy, cart *services.CartService, orders *services.OrderService) *DashboardController {
	return &DashboardController{menu: menu, cutoff: cutoff, cart: cart, orders: orders}
}

func (dc *DashboardController) Show(c *ctx.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Context())

	orders, err := dc.orders.ListForUser(userID)
	if err != nil {
		c.Error(http.StatusInternalServerError, "Could not load dashboard")
		return
	}

	days := []menuDay{}
	for _, date := range dc.menu.Dates() {
		closed, err := dc.cutoff.IsClosed(date)
		if err != nil {
			c.Error(http.StatusInternalServerError, "Could not load dashboard")
			return
		}
		days = append(days, menuDay{Date: date, Meals: dc.menu.MealsFor(date), Closed: closed})
	}

	cart := dc.cart.Snapshot(c.Session(), userID)

	c.Success(map[string]interface{}{
		"menu":   days,
		"cart":   cart,
		"total":  dc.cart.Total(cart),
		"orders": orders,
	})
}
