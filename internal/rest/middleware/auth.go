package middleware

import (
	"strings"

	"github.com/flexprice/coupon-service/internal/auth"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware resolves the bearer token, when present, into the
// request's actor. Requests without a token continue as anonymous; a token
// that fails validation is rejected.
func AuthenticateMiddleware(provider auth.Provider, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			c.Error(ierr.NewError("invalid authorization header format").
				WithHint("Invalid authorization header format").
				Mark(ierr.ErrUnauthenticated))
			c.Abort()
			return
		}

		actor, err := provider.ValidateToken(c.Request.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			c.Error(err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(types.SetActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireAuth rejects anonymous requests
func RequireAuth(c *gin.Context) {
	if types.GetActor(c.Request.Context()) == nil {
		c.Error(ierr.NewError("authentication required").
			WithHint(ierr.MsgNotAuthorized).
			Mark(ierr.ErrUnauthenticated))
		c.Abort()
		return
	}
	c.Next()
}
