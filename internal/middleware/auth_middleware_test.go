package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iauth "github.com/fi-advisor/fi/internal/auth"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *iauth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "secret",
		Issuer:         "fi-test",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/profile", Auth(jwtSvc), func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetString(CtxUserIDKey),
			"session_id": c.GetString(CtxSessionIDKey),
			"provider":   c.GetString(CtxProviderKey),
			"subject":    claims.Subject,
		})
	})
	return r, jwtSvc
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	r, jwtSvc := newAuthRouter(t)

	token, _, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:    "user-123",
		SessionID: "session-abc",
		Provider:  "google",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "bearer  "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "user-123", payload["user_id"])
	assert.Equal(t, "session-abc", payload["session_id"])
	assert.Equal(t, "google", payload["provider"])
	assert.Equal(t, "user-123", payload["subject"])
}

func TestAuthRejectsMissingOrBadTokens(t *testing.T) {
	r, _ := newAuthRouter(t)

	for name, header := range map[string]string{
		"missing":      "",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"empty bearer": "Bearer   ",
		"garbage":      "Bearer not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
			assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
		})
	}
}
