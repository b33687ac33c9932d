// Package response writes the JSON envelope every API route answers with:
// {success, data, error{code,message}, meta}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/fi-advisor/fi/pkg/errors"
)

type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta tells the client how the payload was produced. Source names the
// backing store ("database" or "local"), Cached marks a TTL cache hit and
// Fallback marks a canned answer served because an AI provider failed.
type Meta struct {
	Total    int    `json:"total,omitempty"`
	Source   string `json:"source,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any) {
	SuccessWithMeta(c, statusCode, data, nil)
}

func SuccessWithMeta(c *gin.Context, statusCode int, data any, meta *Meta) {
	c.JSON(statusCode, Response{Success: true, Data: data, Meta: meta})
}

// List writes a collection with its count. A nil slice renders as [].
func List[T any](c *gin.Context, items []T, meta *Meta) {
	if items == nil {
		items = []T{}
	}
	out := Meta{}
	if meta != nil {
		out = *meta
	}
	out.Total = len(items)
	SuccessWithMeta(c, http.StatusOK, items, &out)
}

// Error writes the error envelope for err. Errors that are not AppErrors
// render as a generic 500.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}
	appErr := appErrors.FromError(err)

	// the cause travels on the gin context for the access log, never in the body
	if appErr.Internal != nil {
		_ = c.Error(appErr.Internal)
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, Response{
		Success: false,
		Error:   &ErrorInfo{Code: appErr.Code, Message: appErr.Message},
	})
}
