package middlewares

import (
	"net/http"
	"slices"

	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/gin-gonic/gin"
)

// RequireRole aborts with 403 unless the authenticated user's role is one of
// the allowed role ids. Must run after AuthMiddleware.
func RequireRole(allowed ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleId, ok := utils.GetRoleIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "non authentifie"})
			c.Abort()
			return
		}
		if !slices.Contains(allowed, roleId) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "acces refuse"})
			c.Abort()
			return
		}
		c.Next()
	}
}
