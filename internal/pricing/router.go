package pricing

import (
	"github.com/gin-gonic/gin"
)

type Router struct {
	controller *Controller
}

func NewRouter(controller *Controller) *Router {
	return &Router{controller: controller}
}

func (r *Router) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/variants/:id/prices", r.controller.GetVariantPrices)
}
