package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	cases := map[string]int{
		ErrCodeInternal:           http.StatusInternalServerError,
		ErrCodeValidation:         http.StatusBadRequest,
		ErrCodeUnauthorized:       http.StatusUnauthorized,
		ErrCodeForbidden:          http.StatusForbidden,
		ErrCodeNotFound:           http.StatusNotFound,
		ErrCodeSchema:             http.StatusUnprocessableEntity,
		ErrCodeDatasetUnavailable: http.StatusServiceUnavailable,
		ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
		ErrCodeRateLimited:        http.StatusTooManyRequests,
	}
	for code, want := range cases {
		assert.Equal(t, want, GetHTTPStatus(code), code)
	}

	// Codes outside the map degrade to 500.
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("SOMETHING_ELSE"))
}

func TestNormalizeErrorCode(t *testing.T) {
	// Domain codes translate to wire codes.
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeDatasetUnavailable, NormalizeErrorCode("DATASET_UNAVAILABLE"))
	assert.Equal(t, ErrCodeSchema, NormalizeErrorCode("SCHEMA_MISSING_COLUMNS"))

	// Wire codes and unknown codes pass through untouched.
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM_ERROR", NormalizeErrorCode("CUSTOM_ERROR"))
}

func TestErrorCodeTable(t *testing.T) {
	// Every registered code follows the ERR_ convention and carries a
	// real HTTP status.
	for code, status := range ErrorCodeHTTPStatus {
		assert.True(t, strings.HasPrefix(code, "ERR_"), code)
		assert.GreaterOrEqual(t, status, 400, code)
	}

	// The legacy mapping only ever targets registered codes.
	for legacy, code := range LegacyErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "legacy code %s maps to unregistered %s", legacy, code)
	}
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse("NOT_FOUND", "Resource not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code, "legacy code is normalized")
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.False(t, resp.Error.Timestamp.Before(before))
	assert.False(t, resp.Error.Timestamp.After(time.Now()))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Listing not found", "req-123")

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)

	// The envelope must survive a wire round trip.
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "req-123", decoded.Error.RequestID)
}

func TestNewErrorResponseWithHelp(t *testing.T) {
	resp := NewErrorResponseWithHelp(ErrCodeUnauthorized, "Not authenticated", "req-001",
		"https://docs.example.com/errors/auth")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "https://docs.example.com/errors/auth", resp.Error.Help)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Validation failed", "req-789", []ValidationDetail{
		{Field: "type", Message: "This field is required"},
		{Field: "limit", Message: "Must be less than or equal to 100"},
	})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "type", resp.Error.Details[0].Field)
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"name": "test"})

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
		wantSize  int
	}{
		{name: "even pages", total: 100, pageSize: 10, wantPages: 10, wantSize: 10},
		{name: "partial last page", total: 101, pageSize: 10, wantPages: 11, wantSize: 10},
		{name: "empty result", total: 0, pageSize: 10, wantPages: 0, wantSize: 10},
		{name: "zero page size defaults", total: 100, pageSize: 0, wantPages: 5, wantSize: 20},
		{name: "negative page size defaults", total: 100, pageSize: -1, wantPages: 5, wantSize: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)

			assert.True(t, resp.Success)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.total, resp.Meta.Total)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.wantSize, resp.Meta.PageSize)
		})
	}
}
