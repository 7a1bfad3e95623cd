package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/a1gato/olimpiad/internal/middleware"
	"github.com/a1gato/olimpiad/internal/models"
)

// claimsFromContext returns the token claims the JWT middleware stored, or
// nil on routes that ran without it.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
