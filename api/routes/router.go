// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tourly/internal/auth"
	"tourly/internal/bookings"
	"tourly/internal/catalog"
	"tourly/internal/checkout"
	"tourly/internal/cleanup"
	"tourly/internal/gateway"
	"tourly/internal/holds"
	"tourly/internal/notifications"
	"tourly/internal/payments"
	"tourly/internal/pricing"
	"tourly/internal/refunds"
	"tourly/internal/shared/config"
	"tourly/internal/shared/database"
	"tourly/internal/users"
	"tourly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	queue  notifications.Queue
	logger *logger.Logger

	// Wired during SetupRoutes; exposed for the server lifecycle.
	Sweeper *cleanup.Sweeper
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, queue notifications.Queue, log *logger.Logger) *Router {
	return &Router{
		config: cfg,
		db:     db,
		queue:  queue,
		logger: log,
	}
}

// SetupRoutes configures all application routes and wires the service graph.
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	pg := r.db.GetPostgreSQL()

	// Repositories.
	userRepo := users.NewRepository(pg)
	catalogRepo := catalog.NewRepository(pg)
	holdRepo := holds.NewRepository(pg)
	refundRepo := refunds.NewRepository(pg)
	paymentRepo := payments.NewRepository(pg)
	bookingRepo := bookings.NewRepository(pg)

	// Services.
	catalogService := catalog.NewService(catalogRepo)
	holdManager := holds.NewManager(holdRepo, r.config.Checkout.HoldTTL)
	catalogService.SetAvailabilityService(holdManager)

	gatewayClient := gateway.NewClient(r.config.Gateway, r.logger)

	bookingService := bookings.NewService(
		bookingRepo, holdManager, gatewayClient, paymentRepo,
		refundRepo, catalogRepo, userRepo, r.queue, r.logger,
	)
	bookingService.SetPaymentURLBuilder(gatewayClient)

	checkoutService := checkout.NewService(
		r.config, userRepo, catalogRepo, catalogService,
		holdManager, bookingRepo, r.logger,
	)

	r.Sweeper = cleanup.NewSweeper(bookingService, bookingRepo, r.config.Cleanup, r.logger)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		authController := auth.NewController(auth.NewService(userRepo, r.config))
		auth.NewRouter(authController, r.config).SetupRoutes(api)

		catalog.NewRouter(catalog.NewController(catalogService)).RegisterRoutes(api)
		pricing.NewRouter(pricing.NewController(catalogService)).RegisterRoutes(api)

		checkout.NewRouter(checkout.NewController(checkoutService), r.config).RegisterRoutes(api)
		bookings.NewRouter(bookings.NewController(bookingService), r.config).RegisterRoutes(api)

		gatewayController := gateway.NewController(gatewayClient, bookingService, r.config.Gateway.FrontendURL, r.logger)
		gateway.NewRouter(gatewayController).RegisterRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tourly-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tourly-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}
