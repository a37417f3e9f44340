package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func requestIDRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})
	return r
}

func TestRequestIDGeneratesUUID(t *testing.T) {
	w := httptest.NewRecorder()
	requestIDRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	// The same ID reaches the handler via the gin context.
	assert.Equal(t, id, w.Body.String())
}

func TestRequestIDPropagatesHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "client-supplied-id")

	w := httptest.NewRecorder()
	requestIDRouter().ServeHTTP(w, req)

	assert.Equal(t, "client-supplied-id", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "client-supplied-id", w.Body.String())
}
