// Package middleware provides middleware functions for the smart-wallet deployment service.
package middleware

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"

	"github.com/asgarovf/smart-wallet/internal/config"
	"github.com/asgarovf/smart-wallet/internal/types"
	"github.com/asgarovf/smart-wallet/internal/utils"
)

// AuthMiddleware validates the API key from the Authorization header when API keys are configured
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(cfg.APIKeys) == 0 {
			c.Next()
			return
		}

		apiKey := extractAPIKey(c)

		if apiKey == "" {
			log.Debug("Unauthorized: API key missing from header")
			types.RenderError(c, http.StatusUnauthorized, "Unauthorized: API key required in Authorization header")
			return
		}

		if !utils.IsValidAPIKey(apiKey, cfg.APIKeys) {
			log.Debug("Unauthorized: Invalid API key")
			types.RenderError(c, http.StatusUnauthorized, "Unauthorized: Invalid API key")
			return
		}

		c.Next()
	}
}

// extractAPIKey extracts API key from Authorization Bearer header
func extractAPIKey(c *gin.Context) string {
	auth := c.GetHeader("Authorization")

	// Only support Bearer token format
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	return ""
}
