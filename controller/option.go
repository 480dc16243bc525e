package controller

import (
	"net/http"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/model"
)

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    data,
	})
}

func respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"message": message,
	})
}

// GetConfig returns the full admin-visible configuration. Credentials are
// masked; the admin surface manages them but never echoes them back whole.
func GetConfig(c *gin.Context) {
	pool := model.GetPrimaryPool()
	masked := make(map[string]string, len(pool))
	for id, key := range pool {
		masked[id] = common.MaskKey(key)
	}
	fallbackModels := model.GetFallbackModelSet()
	models := make([]string, 0, len(fallbackModels))
	for m := range fallbackModels {
		models = append(models, m)
	}
	respondOK(c, gin.H{
		"trigger_key_set": model.GetTriggerKey() != "",
		"primary_pool":    masked,
		"fallback_key":    common.MaskKey(model.GetFallbackKey()),
		"fallback_models": models,
		"retry_budget":    model.GetRetryBudget(),
	})
}

type updateTriggerKeyRequest struct {
	TriggerKey string `json:"trigger_key"`
}

func UpdateTriggerKey(c *gin.Context) {
	var req updateTriggerKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.SetTriggerKey(req.TriggerKey); err != nil {
		gmw.GetLogger(c).Error("update trigger key failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to persist trigger key")
		return
	}
	respondOK(c, nil)
}

type poolEntriesRequest struct {
	Entries map[string]string `json:"entries"`
}

func AddPoolEntries(c *gin.Context) {
	var req poolEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Entries) == 0 {
		respondError(c, http.StatusBadRequest, "entries is required")
		return
	}
	if err := model.AddPrimaryEntries(req.Entries); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(c, nil)
}

func RemovePoolEntry(c *gin.Context) {
	id := c.Param("id")
	if err := model.RemovePrimaryEntry(id); err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	respondOK(c, nil)
}

func ClearPool(c *gin.Context) {
	if err := model.ClearPrimary(); err != nil {
		gmw.GetLogger(c).Error("clear pool failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to clear pool")
		return
	}
	respondOK(c, nil)
}

type fallbackRequest struct {
	FallbackKey *string  `json:"fallback_key"`
	Models      []string `json:"models"`
}

// UpdateFallback sets the fallback credential and/or replaces the fallback
// model set. Omitted fields are left untouched.
func UpdateFallback(c *gin.Context) {
	var req fallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FallbackKey != nil {
		if err := model.SetFallbackKey(*req.FallbackKey); err != nil {
			respondError(c, http.StatusInternalServerError, "failed to persist fallback key")
			return
		}
	}
	if req.Models != nil {
		if err := model.SetFallbackModelSet(req.Models); err != nil {
			respondError(c, http.StatusInternalServerError, "failed to persist fallback models")
			return
		}
	}
	respondOK(c, nil)
}

type retryBudgetRequest struct {
	RetryBudget int `json:"retry_budget"`
}

func UpdateRetryBudget(c *gin.Context) {
	var req retryBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.SetRetryBudget(req.RetryBudget); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(c, nil)
}

type adminPasswordRequest struct {
	Password string `json:"password"`
}

func UpdateAdminPassword(c *gin.Context) {
	var req adminPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Password) < 8 {
		respondError(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if err := model.SetAdminHash(common.Password2Hash(req.Password)); err != nil {
		gmw.GetLogger(c).Error("update admin password failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to persist admin password")
		return
	}
	respondOK(c, nil)
}
