package gateway

import (
	"github.com/gin-gonic/gin"
)

type Router struct {
	controller *Controller
}

func NewRouter(controller *Controller) *Router {
	return &Router{controller: controller}
}

// RegisterRoutes wires the public callback endpoints. Both must stay
// unauthenticated: the gateway's servers and the returning browser carry no
// bearer token, authenticity comes from the signature.
func (r *Router) RegisterRoutes(router *gin.RouterGroup) {
	payment := router.Group("/payment")
	{
		payment.GET("/ipn", r.controller.HandleIPN)
		payment.GET("/return", r.controller.HandleReturn)
	}
}
