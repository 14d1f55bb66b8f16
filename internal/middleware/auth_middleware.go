package middleware

import (
	"context"
	"strings"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/domain"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "session_token"

	ctxIdentity = "identity"
	ctxToken    = "session_token"
)

// SessionResolver turns a presented token into the caller's identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(c *gin.Context) string {
	if token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); found {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

func AuthMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			abortWith(c, autherrors.ErrTokenMissing)
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			abortWith(c, err)
			return
		}

		c.Set(ctxIdentity, identity)
		c.Set(ctxToken, token)
		c.Set("username", identity.Username)
		c.Set("role", identity.Role)

		ctx := contextutil.WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentIdentity returns the identity resolved by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (domain.Identity, bool) {
	if v, ok := c.Get(ctxIdentity); ok {
		if id, ok := v.(domain.Identity); ok {
			return id, true
		}
	}
	return contextutil.GetIdentity(c.Request.Context())
}

// CurrentToken returns the raw token the caller authenticated with.
func CurrentToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			abortWith(c, autherrors.ErrForbidden)
			return
		}

		for _, role := range allowedRoles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		abortWith(c, autherrors.ErrForbidden)
	}
}

func abortWith(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
	c.Abort()
}
