package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"
	"food-ordering-api/services"
)

const (
	identityKey = "identity"
	tokenKey    = "token"
)

// Authenticator resolves a bearer token to a caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
}

// AuthRequired validates the bearer token and injects the identity into context
func AuthRequired(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			abortWithError(c, apperrors.Unauthenticated("Authorization header required (Bearer <token>)"))
			return
		}
		identity, err := authn.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Set(tokenKey, tokenStr)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is presented and
// otherwise lets the request through anonymously.
func OptionalAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if identity, err := authn.Authenticate(c.Request.Context(), tokenStr); err == nil {
				c.Set(identityKey, identity)
				c.Set(tokenKey, tokenStr)
			}
		}
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			abortWithError(c, apperrors.Unauthenticated("Authorization header required (Bearer <token>)"))
			return
		}
		for _, r := range roles {
			if identity.Role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, apperrors.Forbidden("Access denied. Required role(s): "+rolesString(roles)))
	}
}

func rolesString(roles []models.UserRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// GetIdentity returns the authenticated caller, or nil for anonymous requests.
func GetIdentity(c *gin.Context) *services.Identity {
	val, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := val.(*services.Identity)
	return identity
}

// GetToken returns the raw bearer token of an authenticated request.
func GetToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// abortWithError stops the chain and records err on the context so the
// request logger sees the cause.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.PublicMessage(err)})
}
