package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/logger"
	"github.com/fi-advisor/fi/pkg/response"
)

// Recovery turns a handler panic into the standard 500 envelope. The panic
// value and stack only reach the log.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && err == http.ErrAbortHandler {
				panic(rec)
			}
			logger.WithModule("http").Error("handler panicked",
				zap.String("method", c.Request.Method),
				zap.String("route", routeLabel(c)),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.Error(c, errors.ErrInternalServer.WithInternal(fmt.Errorf("panic: %v", rec)))
			c.Abort()
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with a NOT_FOUND envelope.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, &errors.AppError{
		Code:       errors.ErrNotFound.Code,
		Message:    fmt.Sprintf("%s %s is not a known route", c.Request.Method, c.Request.URL.Path),
		StatusCode: http.StatusNotFound,
	})
}
