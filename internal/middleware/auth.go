package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// DevelopmentAuthMiddleware for when the Istio JWT path is not available
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip auth for health check endpoints
		if strings.HasPrefix(c.Request.URL.Path, "/health") ||
			strings.HasPrefix(c.Request.URL.Path, "/ready") {
			c.Next()
			return
		}

		// Check for X-User-ID header (from proxy)
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = "00000000-0000-0000-0000-000000000001" // Valid UUID for dev
		}

		// Check for X-Tenant-ID header
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			tenantID = "00000000-0000-0000-0000-000000000001"
		}

		// In development, create a mock user context
		c.Set("user_id", userID)
		c.Set("staff_id", userID) // RBAC middleware checks staff_id first
		c.Set("user_email", "dev@example.com")
		c.Set("user_name", "Development User")
		c.Set("tenant_id", tenantID)
		c.Set("user_roles", []string{"admin", "employee"})

		c.Next()
	}
}

// GetUserID retrieves the acting user id from gin context, empty if unset.
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
