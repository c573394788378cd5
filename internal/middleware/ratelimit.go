package middleware

import (
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/service"
	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware must run after AuthMiddleware.
func RateLimitMiddleware(accounts *service.AccountRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc := CurrentAccount(c)
		if acc == nil {
			_ = c.Error(apperrors.New(apperrors.ErrAuthFailed, "unauthorized", nil))
			c.Abort()
			return
		}

		limiter := accounts.Limiter(acc.UserID)
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			_ = c.Error(apperrors.New(apperrors.ErrUpstreamRateLimit, "gateway rate limit exceeded", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
