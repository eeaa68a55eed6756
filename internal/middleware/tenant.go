package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultBranchID is used when the console does not scope a request to a
// specific branch.
const DefaultBranchID = "main"

// TenantMiddleware extracts tenant ID from headers
// SECURITY: No default tenant fallback - requests without tenant context are rejected
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get tenant ID from X-Tenant-ID header (required)
		tenantID := c.GetHeader("X-Tenant-ID")

		// If not in header, try to get from context (set by auth middleware)
		if tenantID == "" {
			if tid, exists := c.Get("tenant_id"); exists {
				tenantID = tid.(string)
			}
		}

		// SECURITY: No default fallback - fail closed
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TENANT_REQUIRED",
					"message": "Tenant ID is required. Include X-Tenant-ID header.",
				},
			})
			c.Abort()
			return
		}

		// Set tenant ID in context for handlers to use
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// BranchMiddleware extracts the branch scope from headers. Optional; the
// default branch applies when the console sends no X-Branch-ID.
func BranchMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		branchID := c.GetHeader("X-Branch-ID")
		if branchID == "" {
			branchID = DefaultBranchID
		}
		c.Set("branch_id", branchID)
		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}

// GetBranchID retrieves the branch ID from gin context
func GetBranchID(c *gin.Context) string {
	if id := c.GetString("branch_id"); id != "" {
		return id
	}
	return DefaultBranchID
}
