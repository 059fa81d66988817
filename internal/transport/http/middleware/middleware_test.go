package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"gopherauth/internal/pkg/jwtutil"
)

const secret = "test-secret"

func serve(t *testing.T, guard gin.HandlerFunc, headers map[string]string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var reached *gin.Context
	router := gin.New()
	router.GET("/", guard, func(c *gin.Context) {
		reached = c
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec, reached
}

func TestAuthJWTAcceptsBearerToken(t *testing.T) {
	token, err := jwtutil.GenerateToken(secret, time.Hour, 42, "alice")
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + token, "bearer " + token, "  Bearer   " + token + " "} {
		rec, c := serve(t, AuthJWT(secret), map[string]string{"Authorization": header})
		require.Equal(t, http.StatusNoContent, rec.Code, header)
		require.NotNil(t, c)

		userID, ok := UserIDFromContext(c)
		require.True(t, ok)
		require.Equal(t, uint(42), userID)
		require.Equal(t, "alice", c.GetString(ContextUsernameKey))
	}
}

func TestAuthJWTRejects(t *testing.T) {
	expired, err := jwtutil.GenerateToken(secret, -time.Minute, 42, "alice")
	require.NoError(t, err)
	foreign, err := jwtutil.GenerateToken("other-secret", time.Hour, 42, "alice")
	require.NoError(t, err)

	cases := map[string]map[string]string{
		"missing header": nil,
		"wrong scheme":   {"Authorization": "Basic dXNlcjpwYXNz"},
		"empty token":    {"Authorization": "Bearer "},
		"scheme only":    {"Authorization": "Bearer"},
		"expired token":  {"Authorization": "Bearer " + expired},
		"foreign secret": {"Authorization": "Bearer " + foreign},
	}
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			rec, c := serve(t, AuthJWT(secret), headers)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Nil(t, c)
		})
	}
}

func TestAdminKey(t *testing.T) {
	rec, _ := serve(t, AdminKey(" admin-key "), map[string]string{AdminKeyHeader: "admin-key"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = serve(t, AdminKey("admin-key"), map[string]string{AdminKeyHeader: "wrong"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serve(t, AdminKey("admin-key"), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serve(t, AdminKey(""), map[string]string{AdminKeyHeader: ""})
	require.Equal(t, http.StatusForbidden, rec.Code)
}
