package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/middleware"
	"github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated user id, writing a 401 when it is missing.
func currentUserID(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// bindOptionalJSON binds a JSON body when one was sent. An empty body leaves dest untouched.
func bindOptionalJSON(c *gin.Context, dest any) bool {
	if c.Request == nil || c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return false
	}
	return true
}
