package catalog

import (
	"github.com/gin-gonic/gin"
)

type Router struct {
	controller *Controller
}

func NewRouter(controller *Controller) *Router {
	return &Router{controller: controller}
}

// RegisterRoutes wires the public catalog read endpoints.
func (r *Router) RegisterRoutes(router *gin.RouterGroup) {
	tours := router.Group("/tours")
	{
		tours.GET("", r.controller.ListTours)
		tours.GET("/:id", r.controller.GetTour)
	}

	variants := router.Group("/variants")
	{
		variants.GET("/:id", r.controller.GetVariant)
		variants.GET("/:id/sessions", r.controller.ListSessions)
	}
}
