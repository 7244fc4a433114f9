package middleware

import (
	"net/http"

	"storya/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired gates the back office: moderation queue, trust-level and
// payout administration, sweep triggers. Runs after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
