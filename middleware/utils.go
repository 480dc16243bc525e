package middleware

import (
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common/helper"
)

// AbortWithError aborts the request with an error payload in the alternate
// error envelope.
func AbortWithError(c *gin.Context, statusCode int, err error) {
	gmw.GetLogger(c).Warn("server abort",
		zap.Int("status_code", statusCode),
		zap.Error(err))
	c.JSON(statusCode, gin.H{
		"error": gin.H{
			"message": helper.MessageWithRequestId(err.Error(), c.GetString(helper.RequestIdKey)),
			"type":    "gemini_pool_error",
		},
	})
	c.Abort()
}
