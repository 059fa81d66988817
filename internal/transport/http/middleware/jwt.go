package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherauth/internal/pkg/jwtutil"
	"gopherauth/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// AuthJWT requires a bearer token signed with secret and puts its claims on the context.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := credential(c, "Authorization", bearerScheme)
		if err != nil {
			reject(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			reject(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

// UserIDFromContext returns the id stored by AuthJWT.
func UserIDFromContext(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := raw.(uint)
	return userID, ok
}
