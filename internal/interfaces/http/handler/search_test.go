package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/domain/shared"
	"github.com/homefinder/backend/internal/interfaces/http/dto"
)

type stubRecommender struct {
	criteria listing.SearchCriteria
	limit    int
	rec      *listing.Recommendation
	err      error
}

func (s *stubRecommender) Recommend(_ context.Context, criteria listing.SearchCriteria, limit int) (*listing.Recommendation, error) {
	s.criteria = criteria
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.rec, nil
}

type stubDefaults struct {
	defaults listing.SearchDefaults
	err      error
}

func (s *stubDefaults) Defaults(_ context.Context) (listing.SearchDefaults, error) {
	return s.defaults, s.err
}

func testListing(price string) *listing.Listing {
	return &listing.Listing{
		ID:             uuid.New(),
		Type:           "apartment",
		Title:          "Bright flat",
		Location:       "Maadi, Cairo",
		City:           "Cairo",
		Bedrooms:       2,
		Bathrooms:      1,
		SizeSqm:        decimal.RequireFromString("95"),
		Price:          decimal.RequireFromString(price),
		FormattedPrice: "EGP " + price,
		PhoneNumber:    "01001234567",
		ImageLink:      "https://img.example/1.jpg",
	}
}

func searchRouter(recommender *stubRecommender, defaults *stubDefaults) *gin.Engine {
	h := NewSearchHandler(recommender, defaults)
	router := gin.New()
	router.POST("/search/recommendations", h.Recommend)
	router.GET("/search/defaults", h.GetDefaults)
	return router
}

func postSearch(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/search/recommendations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchHandlerRecommend(t *testing.T) {
	recommender := &stubRecommender{
		rec: &listing.Recommendation{
			Listings:     []*listing.Listing{testListing("1500000")},
			Relaxed:      false,
			TotalMatched: 1,
		},
	}
	router := searchRouter(recommender, &stubDefaults{})

	w := postSearch(t, router, gin.H{
		"type":         "apartment",
		"city":         "Cairo",
		"min_bedrooms": 2,
		"limit":        5,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, recommender.limit)
	assert.Equal(t, "apartment", recommender.criteria.Type)
	assert.Equal(t, "Cairo", recommender.criteria.City)
	require.NotNil(t, recommender.criteria.MinBedrooms)
	assert.Equal(t, 2, *recommender.criteria.MinBedrooms)

	var resp struct {
		Success bool                   `json:"success"`
		Data    RecommendationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Data.Relaxed)
	assert.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, 1, resp.Data.TotalMatched)
	require.Len(t, resp.Data.Listings, 1)
	assert.Equal(t, "EGP 1500000", resp.Data.Listings[0].FormattedPrice)
	assert.Equal(t, "01001234567", resp.Data.Listings[0].PhoneNumber)
}

func TestSearchHandlerRecommendRelaxed(t *testing.T) {
	recommender := &stubRecommender{
		rec: &listing.Recommendation{Relaxed: true, TotalMatched: 0},
	}
	router := searchRouter(recommender, &stubDefaults{})

	w := postSearch(t, router, gin.H{"type": "castle"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data RecommendationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Relaxed)
	assert.Equal(t, 0, resp.Data.Count)
	assert.NotNil(t, resp.Data.Listings)
}

func TestSearchHandlerRecommendValidation(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"limit above cap", gin.H{"limit": 101}},
		{"negative min_bedrooms", gin.H{"min_bedrooms": -1}},
		{"negative min_price", gin.H{"min_price": -5.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := searchRouter(&stubRecommender{}, &stubDefaults{})
			w := postSearch(t, router, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
		})
	}
}

func TestSearchHandlerRecommendCrossFieldValidation(t *testing.T) {
	router := searchRouter(&stubRecommender{}, &stubDefaults{})

	w := postSearch(t, router, gin.H{
		"min_price": 2000000.0,
		"max_price": 1000000.0,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "max_price")
}

func TestSearchHandlerRecommendDatasetUnavailable(t *testing.T) {
	recommender := &stubRecommender{err: shared.ErrDatasetUnavailable}
	router := searchRouter(recommender, &stubDefaults{})

	w := postSearch(t, router, gin.H{"type": "apartment"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeDatasetUnavailable)
}

func TestSearchHandlerGetDefaults(t *testing.T) {
	defaults := &stubDefaults{
		defaults: listing.SearchDefaults{
			Types:        []string{"apartment", "villa"},
			Cities:       []string{"Cairo", "Giza"},
			MaxBedrooms:  7,
			MaxBathrooms: 5,
			MinSize:      decimal.RequireFromString("40"),
			MaxSize:      decimal.RequireFromString("600"),
			MinPrice:     decimal.RequireFromString("250000"),
			MaxPrice:     decimal.RequireFromString("12000000"),
		},
	}
	router := searchRouter(&stubRecommender{}, defaults)

	req := httptest.NewRequest(http.MethodGet, "/search/defaults", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data SearchDefaultsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"apartment", "villa"}, resp.Data.Types)
	assert.Equal(t, []string{"Cairo", "Giza"}, resp.Data.Cities)
	assert.Equal(t, "600", resp.Data.MaxSize)
	assert.Equal(t, "12000000", resp.Data.MaxPrice)
}

func TestSearchHandlerGetDefaultsUnavailable(t *testing.T) {
	defaults := &stubDefaults{err: shared.ErrDatasetUnavailable}
	router := searchRouter(&stubRecommender{}, defaults)

	req := httptest.NewRequest(http.MethodGet, "/search/defaults", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
