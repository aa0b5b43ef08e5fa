package middlewares

import (
	"net/http"
	"strings"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token, rejects revoked tokens and puts
// the authenticated identity into the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "token manquant"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "token invalide ou expire"})
			c.Abort()
			return
		}

		// revoked on logout
		if _, revoked, _ := config.GetRedisValue("RevokedToken:" + auth); revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "session terminee"})
			c.Abort()
			return
		}

		claims, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "token invalide"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), auth)
		ctx = utils.SetUserIdInContext(ctx, claims.ID)
		ctx = utils.SetEmailInContext(ctx, claims.Email)
		ctx = utils.SetRoleIdInContext(ctx, claims.Role)
		ctx = utils.SetClientIPInContext(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
