package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appdataset "github.com/homefinder/backend/internal/application/dataset"
	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/domain/shared"
	"github.com/homefinder/backend/internal/infrastructure/cache"
)

type stubDatasetService struct {
	status  *appdataset.Status
	entry   *cache.CachedTable
	err     error
	reloads int
}

func (s *stubDatasetService) Status(_ context.Context) (*appdataset.Status, error) {
	return s.status, s.err
}

func (s *stubDatasetService) Reload(_ context.Context) (*cache.CachedTable, error) {
	s.reloads++
	return s.entry, s.err
}

func datasetRouter(svc *stubDatasetService) *gin.Engine {
	h := NewDatasetHandler(svc)
	router := gin.New()
	router.GET("/dataset/status", h.GetStatus)
	router.POST("/dataset/reload", h.Reload)
	return router
}

func TestDatasetHandlerGetStatus(t *testing.T) {
	loadedAt := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	router := datasetRouter(&stubDatasetService{
		status: &appdataset.Status{
			SourceURI:      "file:///data/listings.csv",
			Fingerprint:    "fp-1",
			LoadedAt:       loadedAt,
			RowsRead:       1000,
			RowsKept:       985,
			DroppedMissing: 9,
			Types:          4,
			Cities:         12,
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/dataset/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DatasetStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "file:///data/listings.csv", resp.Data.SourceURI)
	assert.Equal(t, "fp-1", resp.Data.Fingerprint)
	assert.Equal(t, "2026-08-24T09:00:00Z", resp.Data.LoadedAt)
	assert.Equal(t, 985, resp.Data.RowsKept)
	assert.Equal(t, 9, resp.Data.DroppedMissing)
}

func TestDatasetHandlerGetStatusUnavailable(t *testing.T) {
	router := datasetRouter(&stubDatasetService{err: shared.ErrDatasetUnavailable})

	req := httptest.NewRequest(http.MethodGet, "/dataset/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDatasetHandlerGetStatusSchemaError(t *testing.T) {
	router := datasetRouter(&stubDatasetService{
		err: shared.NewSchemaError([]string{"price", "type"}),
	})

	req := httptest.NewRequest(http.MethodGet, "/dataset/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "price")
}

func TestDatasetHandlerReload(t *testing.T) {
	loadedAt := time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC)
	svc := &stubDatasetService{
		entry: &cache.CachedTable{
			Fingerprint: "fp-2",
			Table:       listing.NewTable(nil),
			LoadedAt:    loadedAt,
		},
	}
	router := datasetRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/dataset/reload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.reloads)

	var resp struct {
		Data ReloadResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fp-2", resp.Data.Fingerprint)
	assert.Equal(t, "2026-08-24T10:30:00Z", resp.Data.LoadedAt)
}

type stubProbe struct {
	rows     int
	loadedAt time.Time
	ok       bool
}

func (s *stubProbe) Ready() (int, time.Time, bool) {
	return s.rows, s.loadedAt, s.ok
}

func TestHealthHandlerReady(t *testing.T) {
	h := NewHealthHandler(&stubProbe{
		rows:     985,
		loadedAt: time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
		ok:       true,
	})
	router := gin.New()
	router.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data.Status)
	assert.Equal(t, 985, resp.Data.Rows)
}

func TestHealthHandlerNotReady(t *testing.T) {
	h := NewHealthHandler(&stubProbe{})
	router := gin.New()
	router.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
