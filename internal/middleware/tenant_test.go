package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"alerts-service/internal/middleware"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.TenantMiddleware())
	router.Use(middleware.BranchMiddleware())
	router.GET("/scoped", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenantId": middleware.GetTenantID(c),
			"branchId": middleware.GetBranchID(c),
		})
	})
	return router
}

func TestTenantRequired(t *testing.T) {
	router := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TENANT_REQUIRED")
}

func TestTenantFromHeader(t *testing.T) {
	router := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
	req.Header.Set("X-Tenant-ID", "tenant-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tenant-1")
}

func TestBranchDefaultsWhenUnscoped(t *testing.T) {
	router := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
	req.Header.Set("X-Tenant-ID", "tenant-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), middleware.DefaultBranchID)
}

func TestBranchFromHeader(t *testing.T) {
	router := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
	req.Header.Set("X-Tenant-ID", "tenant-1")
	req.Header.Set("X-Branch-ID", "branch-7")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "branch-7")
}
