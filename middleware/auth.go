package middleware

import (
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/common/ctxkey"
	"github.com/fuchsia74/gemini-pool/model"
)

// presentedKey extracts the caller credential from either the bearer token or
// the provider-style api key header.
func presentedKey(c *gin.Context) string {
	authorization := strings.TrimSpace(c.Request.Header.Get("Authorization"))
	if authorization != "" {
		return strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	}
	return strings.TrimSpace(c.Request.Header.Get("x-goog-api-key"))
}

// RelayAuth gates the relay surface. A key matching the configured trigger
// key unlocks the credential pool with retries; any other non-empty key rides
// through to the provider unchanged, with a single attempt.
func RelayAuth() func(c *gin.Context) {
	return func(c *gin.Context) {
		key := presentedKey(c)
		if key == "" {
			AbortWithError(c, http.StatusUnauthorized, errors.New("UNAUTHENTICATED: missing credential"))
			return
		}
		c.Set(ctxkey.PresentedKey, key)
		c.Set(ctxkey.PoolMode, model.IsValidTriggerKey(key))
		c.Next()
	}
}

// AdminAuth gates the admin configuration surface with the stored password
// hash.
func AdminAuth() func(c *gin.Context) {
	return func(c *gin.Context) {
		hash := model.GetAdminHash()
		if hash == "" {
			AbortWithError(c, http.StatusForbidden, errors.New("admin surface is disabled: no admin password configured"))
			return
		}
		password := presentedKey(c)
		if password == "" {
			AbortWithError(c, http.StatusUnauthorized, errors.New("UNAUTHENTICATED: missing admin credential"))
			return
		}
		if !common.ValidatePasswordAndHash(password, hash) {
			AbortWithError(c, http.StatusForbidden, errors.New("invalid admin credential"))
			return
		}
		c.Next()
	}
}
