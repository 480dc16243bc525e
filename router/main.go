package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fuchsia74/gemini-pool/controller"
)

func SetRouter(router *gin.Engine) {
	SetRelayRouter(router)
	SetAdminRouter(router)

	router.GET("/api/status", controller.GetStatus)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(controller.RouteNotFound)
}
