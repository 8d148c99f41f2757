package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"freelance/internal/models"
	"freelance/internal/security"
)

type staticAuth map[string]security.Claims

func (a staticAuth) Authenticate(token string) (security.Claims, error) {
	claims, ok := a[token]
	if !ok {
		return security.Claims{}, errors.New("invalid token")
	}
	return claims, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := staticAuth{
		"client-token": {UserID: 1, Role: "client"},
		"admin-token":  {UserID: 2, Role: "admin"},
	}

	r := gin.New()
	r.Use(RequestID(), Recovery(zerolog.Nop()), Logger(zerolog.Nop()))
	r.GET("/me", Auth(auth), func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	r.GET("/admin", Auth(auth), RequireRoles(models.UserRoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func do(r http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name          string
		authorization string
		status        int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", authorization: "Basic client-token", status: http.StatusUnauthorized},
		{name: "empty token", authorization: "Bearer ", status: http.StatusUnauthorized},
		{name: "unknown token", authorization: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", authorization: "Bearer client-token", status: http.StatusOK},
		{name: "lowercase scheme", authorization: "bearer client-token", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, "/me", tt.authorization)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer client-token").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer admin-token").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := newRouter()

	rec := do(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_server_error")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDKeepsClientValue(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
