package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/storelift/domainstack/internal/utils"
)

// CustomContextMiddleware copies the tenant and user identity from the gin
// context into the request context so services below the handler layer can
// read them.
func CustomContextMiddleware(appSource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.WithCustomContextFromGinRequest(c, appSource)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
