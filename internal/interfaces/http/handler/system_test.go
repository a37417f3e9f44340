package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemRouter() *gin.Engine {
	h := NewSystemHandler()
	router := gin.New()
	router.GET("/system/info", h.GetSystemInfo)
	router.GET("/system/ping", h.Ping)
	return router
}

func TestSystemHandlerGetSystemInfo(t *testing.T) {
	router := systemRouter()

	req := httptest.NewRequest(http.MethodGet, "/system/info", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool               `json:"success"`
		Data    SystemInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "HomeFinder API", resp.Data.Name)
	assert.Equal(t, "1.0.0", resp.Data.Version)
	assert.Equal(t, runtime.Version(), resp.Data.GoVersion)

	started, err := time.Parse(time.RFC3339, resp.Data.StartedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), started, time.Minute)
	assert.NotEmpty(t, resp.Data.Uptime)
}

func TestSystemHandlerPing(t *testing.T) {
	router := systemRouter()

	req := httptest.NewRequest(http.MethodGet, "/system/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    PingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "pong", resp.Data.Message)

	_, err := time.Parse(time.RFC3339, resp.Data.Timestamp)
	assert.NoError(t, err)
}
