package middleware

import (
	"net/http"
	"strings"

	"vinesight-backend/shared/clients"
	utils "vinesight-backend/shared/utils/auth"

	"github.com/gin-gonic/gin"
)

// RequirePermission checks a coarse resource/permission pair against the
// permission service before proxying. Farm-scoped decisions happen inside
// the services, where the farm is known; the gateway only filters requests
// that no role in the caller's organization could ever make.
func RequirePermission(resource, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or missing token",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		allowed, err := clients.CheckPermission(clients.PermissionCheck{
			UserID:         claims.UserID,
			OrganizationID: claims.OrganizationID,
			Resource:       resource,
			Permission:     permission,
		})
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Failed to check permissions",
				"code":  "PERMISSION_CHECK_FAILED",
			})
			c.Abort()
			return
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
				"code":  "FORBIDDEN",
				"details": gin.H{
					"required_resource":   resource,
					"required_permission": permission,
				},
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("permission_checked", true)

		c.Next()
	}
}

// RequireAuth only verifies the bearer token. Used for routes whose
// authorization depends on request content the gateway does not parse.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or missing token",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

func extractClaims(c *gin.Context) (*utils.Claims, error) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return nil, errMissingToken
	}
	return utils.ValidateJWT(tokenString)
}

var errMissingToken = &tokenError{}

type tokenError struct{}

func (e *tokenError) Error() string { return "missing bearer token" }
