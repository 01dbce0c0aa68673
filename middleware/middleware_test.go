package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"food-ordering-api/apperrors"
	"food-ordering-api/logger"
	"food-ordering-api/models"
	"food-ordering-api/services"
)

type stubAuthenticator map[string]*services.Identity

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*services.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, apperrors.Unauthenticated("Invalid or expired token")
}

var stub = stubAuthenticator{
	"admin-token":    {UserID: 1, Role: models.RoleAdmin},
	"customer-token": {UserID: 2, Role: models.RoleCustomer},
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger.Discard()))

	whoami := func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": identity.UserID, "role": identity.Role})
	}

	r.GET("/optional", OptionalAuth(stub), whoami)
	r.GET("/required", AuthRequired(stub), whoami)
	r.GET("/admin", AuthRequired(stub), RoleRequired(models.RoleAdmin), whoami)
	return r
}

func doRequest(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		body   string
	}{
		{name: "optional anonymous", path: "/optional", status: http.StatusOK, body: `"anonymous":true`},
		{name: "optional bad token is anonymous", path: "/optional", token: "bogus", status: http.StatusOK, body: `"anonymous":true`},
		{name: "optional valid token", path: "/optional", token: "customer-token", status: http.StatusOK, body: `"role":"customer"`},
		{name: "required missing", path: "/required", status: http.StatusUnauthorized, body: "Authorization header required"},
		{name: "required invalid", path: "/required", token: "bogus", status: http.StatusUnauthorized, body: "Invalid or expired token"},
		{name: "required valid", path: "/required", token: "customer-token", status: http.StatusOK, body: `"id":2`},
		{name: "admin as customer", path: "/admin", token: "customer-token", status: http.StatusForbidden, body: "Access denied"},
		{name: "admin as admin", path: "/admin", token: "admin-token", status: http.StatusOK, body: `"role":"admin"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.path, tt.token)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter()

	w := doRequest(r, "/optional", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

type failingAuthenticator struct{ cause error }

func (f failingAuthenticator) Authenticate(context.Context, string) (*services.Identity, error) {
	return nil, apperrors.Internal("Failed to verify token", f.cause)
}

func TestAuthRequiredRecordsCause(t *testing.T) {
	cause := errors.New("users table locked")
	var recorded error

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if last := c.Errors.Last(); last != nil {
			recorded = last.Err
		}
	})
	r.GET("/required", AuthRequired(failingAuthenticator{cause: cause}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(r, "/required", "any-token")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to verify token")
	assert.NotContains(t, w.Body.String(), "users table locked")
	assert.ErrorIs(t, recorded, cause)
}
