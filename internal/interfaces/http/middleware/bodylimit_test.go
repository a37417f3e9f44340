package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/homefinder/backend/internal/interfaces/http/dto"
)

func bodyLimitRouter(maxBytes int64) *gin.Engine {
	r := gin.New()
	r.Use(BodyLimit(maxBytes))
	r.POST("/ingest", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusBadRequest, "read failed")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestBodyLimitAllowsSmallBody(t *testing.T) {
	r := bodyLimitRouter(1024)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("tiny payload"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	r := bodyLimitRouter(64)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(strings.Repeat("x", 200)))
	req.ContentLength = 200
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
}

func TestBodyLimitCapsChunkedBody(t *testing.T) {
	r := bodyLimitRouter(32)

	// No declared length, so the up-front check cannot fire and the
	// MaxBytesReader wrapper has to stop the read.
	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(strings.Repeat("x", 128)))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBodyLimitIgnoresBodylessRequests(t *testing.T) {
	r := bodyLimitRouter(8)
	r.GET("/status", func(c *gin.Context) { c.String(http.StatusOK, "up") })

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
