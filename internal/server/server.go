// Package server wires the application together and runs the HTTP listener.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sheapwilliams/lunch/app/controllers"
	"github.com/sheapwilliams/lunch/app/repositories"
	"github.com/sheapwilliams/lunch/app/routes"
	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/config"
	"github.com/sheapwilliams/lunch/pkg/cache"
	"github.com/sheapwilliams/lunch/pkg/clock"
	"github.com/sheapwilliams/lunch/pkg/database"
	"github.com/sheapwilliams/lunch/pkg/logger"
	"github.com/sheapwilliams/lunch/pkg/metrics"
	"github.com/sheapwilliams/lunch/pkg/middleware"
	"github.com/sheapwilliams/lunch/pkg/migration"
	"github.com/sheapwilliams/lunch/pkg/payment"
	"github.com/sheapwilliams/lunch/pkg/reqid"
	"github.com/sheapwilliams/lunch/pkg/router"
	"github.com/sheapwilliams/lunch/pkg/session"
	"github.com/sheapwilliams/lunch/pkg/storage"
)

// Start boots every subsystem and serves HTTP until the process exits.
// Configuration problems (bad timezone, unreadable menu) fail here, at
// startup, never per-request.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	if uri := config.LogMongoURI(); uri != "" {
		if _, err := logger.AttachMongo(uri, config.LogMongoDB()); err != nil {
			logger.Warn("server: mongo log sink disabled", "error", err)
		}
	}

	if err := database.Connect(); err != nil {
		return err
	}
	if err := cache.Connect(); err != nil {
		// Sessions degrade to the in-process store; fine for one instance.
		logger.Warn("server: redis unavailable, using memory sessions", "error", err)
	}
	storage.Connect()

	if err := migration.New(database.DB).Run(); err != nil {
		return err
	}

	r, err := BuildRouter()
	if err != nil {
		return err
	}

	addr := ":" + config.AppPort()
	logger.Info("server: listening", "addr", addr, "env", config.AppEnv())
	fmt.Println("lunch server running on " + addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// BuildRouter constructs the service graph and mounts every route.
// Separated from Start so the CLI's routes command can list the surface
// without opening sockets.
func BuildRouter() (*router.Router, error) {
	clk := clock.System{}

	cutoff, err := services.NewCutoffPolicyFromConfig(clk)
	if err != nil {
		return nil, err
	}

	menu, err := services.NewMenuService(storage.Use(config.StorageDefault()), config.MenuPath())
	if err != nil {
		return nil, err
	}

	userRepo := repositories.NewUserRepository(database.DB)
	orderRepo := repositories.NewOrderRepository(database.DB)

	cartSvc := services.NewCartService(menu, cutoff)
	orderSvc := services.NewOrderService(orderRepo, cartSvc, menu, cutoff)
	checkoutSvc := services.NewCheckoutService(payment.NewStripe(), cartSvc, orderSvc)
	authSvc := services.NewAuthService(userRepo)

	ctrls := routes.Controllers{
		Auth:      controllers.NewAuthController(authSvc),
		Menu:      controllers.NewMenuController(menu, cutoff),
		Cart:      controllers.NewCartController(cartSvc),
		Orders:    controllers.NewOrderController(orderSvc),
		Checkout:  controllers.NewCheckoutController(checkoutSvc),
		Dashboard: controllers.NewDashboardController(menu, cutoff, cartSvc, orderSvc),
		Admin:     controllers.NewAdminController(orderSvc),
	}

	r := router.New()
	r.Use(
		metrics.Middleware(),
		reqid.Middleware(),
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(120, time.Minute),
		session.Middleware(session.DefaultOptions()),
	)

	routes.RegisterAPI(r, ctrls)
	return r, nil
}
