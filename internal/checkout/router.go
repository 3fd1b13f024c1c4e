package checkout

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

func (r *Router) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/checkout", middleware.JWTAuthWithConfig(r.config), r.controller.Purchase)
}
