package bookings

import (
	"tourly/internal/shared/config"
	"tourly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

type Router struct {
	controller *Controller
	config     *config.Config
}

func NewRouter(controller *Controller, cfg *config.Config) *Router {
	return &Router{controller: controller, config: cfg}
}

// RegisterRoutes wires the booking lifecycle endpoints. Everything here
// requires an authenticated identity; supplier actions additionally require
// the SUPPLIER or ADMIN role.
func (r *Router) RegisterRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/bookings")
	bookings.Use(middleware.JWTAuthWithConfig(r.config))
	{
		bookings.GET("", r.controller.ListMyBookings)
		bookings.GET("/:id", r.controller.GetBooking)
		bookings.PUT("/:id/contact", r.controller.UpdateContact)
		bookings.PUT("/:id/payment-method", r.controller.SelectPaymentMethod)
		bookings.POST("/:id/confirm", r.controller.Confirm)
		bookings.POST("/:id/payment-url", r.controller.InitiatePayment)
		bookings.POST("/:id/cancel", r.controller.Cancel)

		supplier := bookings.Group("")
		supplier.Use(middleware.RequireSupplier())
		{
			supplier.POST("/:id/accept", r.controller.SupplierAccept)
			supplier.POST("/:id/reject", r.controller.SupplierReject)
		}
	}
}
