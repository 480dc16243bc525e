package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/model"
)

func GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"version":         common.Version,
			"start_time":      common.StartTime,
			"trigger_key_set": model.GetTriggerKey() != "",
			"pool_size":       len(model.GetPrimaryPool()),
			"retry_budget":    model.GetRetryBudget(),
		},
	})
}

func RouteNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": gin.H{
			"message": "route not found: " + c.Request.URL.Path,
			"type":    "gemini_pool_error",
		},
	})
}
