package router

import (
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/controller"
	"github.com/fuchsia74/gemini-pool/middleware"
)

// SetRelayRouter mounts the relay surface: the alternate endpoints under
// /api/v1 and the provider-style endpoints under /api/v1beta.
func SetRelayRouter(router *gin.Engine) {
	relayRouter := router.Group("/api")
	relayRouter.Use(middleware.RelayPanicRecover(), middleware.RelayAuth(), middleware.Distribute())
	{
		relayRouter.GET("/v1/models", controller.Relay)
		relayRouter.POST("/v1/chat/completions", controller.Relay)
		relayRouter.POST("/v1/embeddings", controller.Relay)
		relayRouter.POST("/v1/images/generations", controller.Relay)

		// provider-style paths carry the action in the final segment, so the
		// whole subtree routes through one wildcard
		relayRouter.Any("/v1beta/*relayPath", controller.Relay)
	}
}
