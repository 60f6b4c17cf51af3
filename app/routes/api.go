package routes

import (
	"net/http"

	"github.com/sheapwilliams/lunch/app/controllers"
	"github.com/sheapwilliams/lunch/pkg/ctx"
	"github.com/sheapwilliams/lunch/pkg/metrics"
	"github.com/sheapwilliams/lunch/pkg/middleware"
	"github.com/sheapwilliams/lunch/pkg/rbac"
	"github.com/sheapwilliams/lunch/pkg/router"
)

// Controllers bundles every controller the API mounts.
type Controllers struct {
	Auth      *controllers.AuthController
	Menu      *controllers.MenuController
	Cart      *controllers.CartController
	Orders    *controllers.OrderController
	Checkout  *controllers.CheckoutController
	Dashboard *controllers.DashboardController
	Admin     *controllers.AdminController
}

// RegisterAPI mounts the full HTTP surface.
func RegisterAPI(r *router.Router, c Controllers) {
	r.Get("/healthz", "healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	api := r.Group("/api", middleware.Authenticate)

	// Public surface.
	api.Get("/location", "location", ctx.Wrap(c.Menu.Location))
	api.Get("/menu", "menu.show", ctx.Wrap(c.Menu.Show))
	api.Post("/register", "auth.register", ctx.Wrap(c.Auth.Register), rbac.Guest)
	api.Post("/login", "auth.login", ctx.Wrap(c.Auth.Login))

	// Confirmation is public on purpose: the payment processor redirects
	// here and the visitor may not be logged in yet. The handler parks the
	// reference and asks for login itself.
	api.Get("/checkout/confirmation", "checkout.confirmation", ctx.Wrap(c.Checkout.Confirmation))

	// Authenticated surface.
	authed := api.Group("", middleware.RequireAuth)
	authed.Post("/logout", "auth.logout", ctx.Wrap(c.Auth.Logout))
	authed.Get("/dashboard", "dashboard", ctx.Wrap(c.Dashboard.Show))

	authed.Get("/cart", "cart.show", ctx.Wrap(c.Cart.Show))
	authed.Post("/cart", "cart.update", ctx.Wrap(c.Cart.Update))
	authed.Delete("/cart", "cart.clear", ctx.Wrap(c.Cart.Clear))
	authed.Delete("/cart/{date}", "cart.remove", ctx.Wrap(c.Cart.Remove))

	authed.Get("/orders", "orders.list", ctx.Wrap(c.Orders.List))
	authed.Post("/orders", "orders.submit", ctx.Wrap(c.Orders.Submit))
	authed.Delete("/orders/{date}", "orders.delete", ctx.Wrap(c.Orders.Delete))

	authed.Post("/checkout", "checkout.start", ctx.Wrap(c.Checkout.Checkout))

	authed.Get("/receipts", "receipts.list", ctx.Wrap(c.Orders.Receipts))
	authed.Get("/receipts/{ref}", "receipts.show", ctx.Wrap(c.Orders.Receipt))

	// Kitchen surface.
	admin := authed.Group("/admin", rbac.HasRole("admin"))
	admin.Get("/orders", "admin.orders", ctx.Wrap(c.Admin.Orders))
}
