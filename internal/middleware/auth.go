package middleware

import (
	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/model"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	HeaderGatewayKey  = "X-Gateway-Key"
	ContextAccountKey = "account"
)

func AuthMiddleware(cfg *config.Config, accounts *service.AccountRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderGatewayKey)
		if key == "" {
			if cfg != nil && !cfg.Auth.RequireAPIKey {
				if acc := accounts.Default(); acc != nil {
					c.Set(ContextAccountKey, acc)
					c.Next()
					return
				}
			}
			_ = c.Error(apperrors.New(apperrors.ErrAuthFailed, "missing gateway key", nil))
			c.Abort()
			return
		}

		acc, ok := accounts.Lookup(key)
		if !ok {
			_ = c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid gateway key", nil))
			c.Abort()
			return
		}
		c.Set(ContextAccountKey, acc)
		c.Next()
	}
}

// CurrentAccount returns the account set by AuthMiddleware, or nil.
func CurrentAccount(c *gin.Context) *model.Account {
	v, ok := c.Get(ContextAccountKey)
	if !ok {
		return nil
	}
	acc, _ := v.(*model.Account)
	return acc
}
