package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/controller"
	"github.com/fuchsia74/gemini-pool/middleware"
)

// SetAdminRouter mounts the configuration surface guarded by the admin
// password. Compression is safe here; the relay surface must stay
// uncompressed because of SSE.
func SetAdminRouter(router *gin.Engine) {
	adminRouter := router.Group("/api/admin")
	adminRouter.Use(gzip.Gzip(gzip.DefaultCompression), middleware.AdminAuth())
	{
		adminRouter.GET("/config", controller.GetConfig)
		adminRouter.PUT("/trigger-key", controller.UpdateTriggerKey)
		adminRouter.POST("/pool", controller.AddPoolEntries)
		adminRouter.DELETE("/pool/:id", controller.RemovePoolEntry)
		adminRouter.DELETE("/pool", controller.ClearPool)
		adminRouter.PUT("/fallback", controller.UpdateFallback)
		adminRouter.PUT("/retry-budget", controller.UpdateRetryBudget)
		adminRouter.PUT("/password", controller.UpdateAdminPassword)
	}
}
