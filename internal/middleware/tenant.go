package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/studioflow/pms-api/pkg/errors"
	"github.com/studioflow/pms-api/pkg/response"
)

// ContextTenantKey is the gin context key storing the resolved tenant id.
const ContextTenantKey = "tenantID"

// TenantHeader carries the studio the request operates on.
const TenantHeader = "X-Tenant-ID"

// Tenant requires the tenant header on every request. All queries downstream
// are scoped by this value, so a request without it cannot be served.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.GetHeader(TenantHeader))
		if tenantID == "" {
			response.Error(c, appErrors.ErrTenantRequired)
			c.Abort()
			return
		}
		c.Set(ContextTenantKey, tenantID)
		c.Next()
	}
}

// TenantFromContext returns the tenant id set by the Tenant middleware.
func TenantFromContext(c *gin.Context) string {
	value, exists := c.Get(ContextTenantKey)
	if !exists {
		return ""
	}
	tenantID, _ := value.(string)
	return tenantID
}
