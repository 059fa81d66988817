package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"gopherauth/internal/transport/http/response"
)

const bearerScheme = "Bearer"

var (
	errMissingCredential = errors.New("missing credential")
	errInvalidScheme     = errors.New("invalid authorization scheme")
)

// credential reads a trimmed header value. With a scheme, the value must be
// "<scheme> <token>" (scheme matched case-insensitively) and only the token is returned.
func credential(c *gin.Context, header, scheme string) (string, error) {
	value := strings.TrimSpace(c.GetHeader(header))
	if value == "" {
		return "", errMissingCredential
	}
	if scheme == "" {
		return value, nil
	}

	name, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(name, scheme) {
		return "", errInvalidScheme
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingCredential
	}
	return token, nil
}

func reject(c *gin.Context, status, code int, message string) {
	response.Error(c, status, code, message)
	c.Abort()
}
