package middleware

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/types"
)

// SentryMiddleware gives every request its own hub and transaction. It is a
// pass-through when Sentry is disabled.
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic: true,
		Timeout: 2 * time.Second,
	})
}

// SentryScopeMiddleware tags the request hub with the tenant, user and request
// id. It must run after TenantMiddleware.
func SentryScopeMiddleware(c *gin.Context) {
	ctx := c.Request.Context()
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		hub = sentry.GetHubFromContext(ctx)
	}

	if hub != nil {
		scope := hub.Scope()
		scope.SetTag("tenant_id", types.GetTenantID(ctx))
		if requestID := types.GetRequestID(ctx); requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		if userID := types.GetUserID(ctx); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
	}

	c.Next()
}
