package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gopherauth/internal/transport/http/response"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKey guards administrative routes. An empty configured key disables them.
func AdminKey(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	return func(c *gin.Context) {
		if key == "" {
			reject(c, http.StatusForbidden, response.CodeForbidden, "admin api disabled")
			return
		}
		provided, err := credential(c, AdminKeyHeader, "")
		if err != nil || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			reject(c, http.StatusForbidden, response.CodeForbidden, "invalid admin key")
			return
		}
		c.Next()
	}
}
