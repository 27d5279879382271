package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sankhya-backend-go/internal/service"
	"github.com/jengzang/sankhya-backend-go/pkg/response"
)

// ClaimsKey is the context key holding *service.Claims after Auth
const ClaimsKey = "claims"

// Auth requires a valid Bearer token
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(header)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CurrentUser returns the email of the authenticated caller, empty if none
func CurrentUser(c *gin.Context) string {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return ""
	}
	claims, ok := v.(*service.Claims)
	if !ok {
		return ""
	}
	return claims.Email
}
