package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/response"
)

// Context keys populated by Auth.
const (
	CtxClaimsKey    = "authClaims"
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
	CtxProviderKey  = "authProvider"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth rejects requests without a valid access token and exposes the caller
// identity to downstream handlers.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="fi"`)
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="fi", error="invalid_token"`)
			response.Error(c, errors.ErrUnauthorized.WithInternal(err))
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Set(CtxProviderKey, claims.Provider)
		c.Next()
	}
}

// CurrentClaims returns the claims stored by Auth, if any.
func CurrentClaims(c *gin.Context) (*iauth.Claims, bool) {
	value, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*iauth.Claims)
	return claims, ok && claims != nil
}
