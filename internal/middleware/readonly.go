package middleware

import (
	"net/http"

	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// ReadOnlyMiddleware blocks order placement and cancellation. Signing and
// credential routes stay open since they move no funds.
func ReadOnlyMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		switch {
		case c.Request.Method == http.MethodPost && c.FullPath() == "/v1/orders",
			c.Request.Method == http.MethodDelete && c.FullPath() == "/v1/orders/:id",
			c.Request.Method == http.MethodPost && c.FullPath() == "/v1/venue-a/orders":
			_ = c.Error(apperrors.New(apperrors.ErrReadOnly, "read-only mode enabled", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
