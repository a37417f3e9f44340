package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appdataset "github.com/homefinder/backend/internal/application/dataset"
	"github.com/homefinder/backend/internal/infrastructure/cache"
	"github.com/homefinder/backend/internal/interfaces/http/dto"
)

// DatasetService exposes the dataset lifecycle operations the API needs
type DatasetService interface {
	Status(ctx context.Context) (*appdataset.Status, error)
	Reload(ctx context.Context) (*cache.CachedTable, error)
}

// DatasetHandler handles dataset administration API endpoints
type DatasetHandler struct {
	BaseHandler
	datasets DatasetService
}

// NewDatasetHandler creates a new DatasetHandler
func NewDatasetHandler(datasets DatasetService) *DatasetHandler {
	return &DatasetHandler{datasets: datasets}
}

// DatasetStatusResponse represents the state of the loaded dataset
// @name HandlerDatasetStatusResponse
type DatasetStatusResponse struct {
	SourceURI        string `json:"source_uri" example:"file:///data/listings.csv"`
	Fingerprint      string `json:"fingerprint" example:"1756000000000000000-524288"`
	LoadedAt         string `json:"loaded_at" example:"2026-08-24T09:00:00Z"`
	RowsRead         int    `json:"rows_read" example:"1000"`
	RowsKept         int    `json:"rows_kept" example:"985"`
	DroppedMissing   int    `json:"dropped_missing" example:"9"`
	DroppedNumeric   int    `json:"dropped_numeric" example:"4"`
	DroppedGibberish int    `json:"dropped_gibberish" example:"2"`
	Warnings         int    `json:"warnings" example:"13"`
	Types            int    `json:"types" example:"4"`
	Cities           int    `json:"cities" example:"12"`
}

// ReloadResponse represents the outcome of a forced dataset reload
// @name HandlerReloadResponse
type ReloadResponse struct {
	Fingerprint string `json:"fingerprint" example:"1756000000000000000-524288"`
	RowsKept    int    `json:"rows_kept" example:"985"`
	LoadedAt    string `json:"loaded_at" example:"2026-08-24T09:00:00Z"`
}

// GetStatus godoc
// @ID           getDatasetStatus
// @Summary      Get dataset status
// @Description  Returns the source identity, row counts and drop breakdown of the currently loaded dataset
// @Tags         dataset
// @Produce      json
// @Success      200 {object} APIResponse[DatasetStatusResponse]
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /dataset/status [get]
func (h *DatasetHandler) GetStatus(c *gin.Context) {
	status, err := h.datasets.Status(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, DatasetStatusResponse{
		SourceURI:        status.SourceURI,
		Fingerprint:      status.Fingerprint,
		LoadedAt:         status.LoadedAt.UTC().Format(time.RFC3339),
		RowsRead:         status.RowsRead,
		RowsKept:         status.RowsKept,
		DroppedMissing:   status.DroppedMissing,
		DroppedNumeric:   status.DroppedNumeric,
		DroppedGibberish: status.DroppedGibberish,
		Warnings:         status.Warnings,
		Types:            status.Types,
		Cities:           status.Cities,
	})
}

// Reload godoc
// @ID           reloadDataset
// @Summary      Reload the dataset
// @Description  Drops the cached table and reloads from the source. Requires the admin API key.
// @Tags         dataset
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200 {object} APIResponse[ReloadResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /dataset/reload [post]
func (h *DatasetHandler) Reload(c *gin.Context) {
	entry, err := h.datasets.Reload(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ReloadResponse{
		Fingerprint: entry.Fingerprint,
		RowsKept:    entry.Table.Len(),
		LoadedAt:    entry.LoadedAt.UTC().Format(time.RFC3339),
	})
}

// ReadinessProbe reports whether a dataset is loaded, without loading one
type ReadinessProbe interface {
	Ready() (rows int, loadedAt time.Time, ok bool)
}

// HealthHandler handles the health endpoint
type HealthHandler struct {
	probe ReadinessProbe
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(probe ReadinessProbe) *HealthHandler {
	return &HealthHandler{probe: probe}
}

// HealthResponse represents the health check response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Rows     int    `json:"rows" example:"985"`
	LoadedAt string `json:"loaded_at,omitempty" example:"2026-08-24T09:00:00Z"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Reports whether the service has a dataset loaded and is ready to serve searches
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	rows, loadedAt, ok := h.probe.Ready()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			dto.ErrCodeDatasetUnavailable,
			"Dataset has not been loaded",
		))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(HealthResponse{
		Status:   "ok",
		Rows:     rows,
		LoadedAt: loadedAt.UTC().Format(time.RFC3339),
	}))
}
