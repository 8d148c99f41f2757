package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"freelance/internal/security"
)

const claimsKey = "access_claims"

type Authenticator interface {
	Authenticate(accessToken string) (security.Claims, error)
}

// Auth accepts "Authorization: Bearer <access token>". Verification is
// signature and expiry only; no store lookup happens per request.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "missing bearer token"})
			return
		}

		claims, err := auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid access token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Auth.
func ClaimsFrom(c *gin.Context) (security.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return security.Claims{}, false
	}
	claims, ok := v.(security.Claims)
	return claims, ok
}
