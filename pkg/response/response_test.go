package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/fi-advisor/fi/pkg/errors"
)

func record(t *testing.T, write func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	write(c)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	return rec, raw
}

func TestSuccessEnvelope(t *testing.T) {
	rec, raw := record(t, func(c *gin.Context) {
		SuccessWithMeta(c, http.StatusCreated, gin.H{"id": "local_1_0"}, &Meta{Source: "local"})
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, raw["success"])
	assert.Equal(t, map[string]any{"id": "local_1_0"}, raw["data"])
	assert.Equal(t, map[string]any{"source": "local"}, raw["meta"])
	assert.NotContains(t, raw, "error")
}

func TestListNeverEmitsNull(t *testing.T) {
	meta := &Meta{Cached: true}
	_, raw := record(t, func(c *gin.Context) {
		var none []string
		List(c, none, meta)
	})

	assert.Equal(t, []any{}, raw["data"])
	assert.Equal(t, map[string]any{"cached": true}, raw["meta"])
	assert.Zero(t, meta.Total, "caller meta must not be mutated")

	_, raw = record(t, func(c *gin.Context) { List(c, []int{1, 2, 3}, nil) })
	assert.EqualValues(t, 3, raw["meta"].(map[string]any)["total"])
}

func TestErrorEnvelope(t *testing.T) {
	cause := errors.New("pq: connection refused")
	rec, raw := record(t, func(c *gin.Context) {
		Error(c, appErrors.ErrServiceDisabled.WithInternal(cause))
		require.Len(t, c.Errors, 1)
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, raw["success"])
	assert.Equal(t, map[string]any{"code": "SERVICE_DISABLED", "message": "Service is not configured"}, raw["error"])
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestErrorWithPlainError(t *testing.T) {
	rec, raw := record(t, func(c *gin.Context) { Error(c, errors.New("boom")) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", raw["error"].(map[string]any)["code"])

	rec, _ = record(t, func(c *gin.Context) { Error(c, nil) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
