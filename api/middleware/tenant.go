package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var tenantHeaders = []string{"X-TENANT", "TENANT", "TenantName"}

// TenantHeaderMiddleware extracts the tenant from the request headers and
// rejects requests without one. Every domain operation is tenant scoped.
func TenantHeaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := ""
		for _, header := range tenantHeaders {
			if value := strings.TrimSpace(c.GetHeader(header)); value != "" {
				tenant = value
				break
			}
		}

		if tenant == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant header is required"})
			c.Abort()
			return
		}

		c.Set("TenantName", tenant)
		c.Next()
	}
}
