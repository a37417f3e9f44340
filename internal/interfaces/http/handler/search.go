package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/interfaces/http/dto"
	"github.com/homefinder/backend/internal/interfaces/http/middleware"
)

// Recommender answers recommendation searches
type Recommender interface {
	Recommend(ctx context.Context, criteria listing.SearchCriteria, limit int) (*listing.Recommendation, error)
}

// DefaultsProvider supplies search-form defaults from the loaded dataset
type DefaultsProvider interface {
	Defaults(ctx context.Context) (listing.SearchDefaults, error)
}

// SearchHandler handles property search API endpoints
type SearchHandler struct {
	BaseHandler
	recommender Recommender
	defaults    DefaultsProvider
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(recommender Recommender, defaults DefaultsProvider) *SearchHandler {
	return &SearchHandler{
		recommender: recommender,
		defaults:    defaults,
	}
}

// SearchRequest represents a recommendation search request
// @name HandlerSearchRequest
type SearchRequest struct {
	Type         string   `json:"type" example:"apartment"`
	City         string   `json:"city" example:"Cairo"`
	MinBedrooms  *int     `json:"min_bedrooms" binding:"omitempty,gte=0" example:"2"`
	MinBathrooms *int     `json:"min_bathrooms" binding:"omitempty,gte=0" example:"1"`
	MinSize      *float64 `json:"min_size" binding:"omitempty,gte=0" example:"80"`
	MaxSize      *float64 `json:"max_size" binding:"omitempty,gte=0" example:"200"`
	MinPrice     *float64 `json:"min_price" binding:"omitempty,gte=0" example:"500000"`
	MaxPrice     *float64 `json:"max_price" binding:"omitempty,gte=0" example:"3000000"`
	Limit        int      `json:"limit" binding:"omitempty,gte=0,lte=100" example:"5"`
}

// ListingResponse represents one listing in API responses
// @name HandlerListingResponse
type ListingResponse struct {
	ID             string  `json:"id" example:"7a1d3f0e-9b1c-4f6a-8a2e-5d4c3b2a1f0e"`
	Type           string  `json:"type" example:"apartment"`
	Title          string  `json:"title" example:"Cozy flat near the Nile"`
	Location       string  `json:"location" example:"Zamalek, Cairo"`
	City           string  `json:"city" example:"Cairo"`
	Bedrooms       int     `json:"bedrooms" example:"2"`
	Bathrooms      int     `json:"bathrooms" example:"1"`
	SizeSqm        float64 `json:"size_sqm" example:"95"`
	Price          string  `json:"price" example:"1500000"`
	FormattedPrice string  `json:"formatted_price" example:"EGP 1,500,000"`
	PhoneNumber    string  `json:"phone_number" example:"01001234567"`
	ImageLink      string  `json:"image_link" example:"https://img.example/1.jpg"`
}

// RecommendationResponse represents the ranked search result
// @name HandlerRecommendationResponse
type RecommendationResponse struct {
	Relaxed      bool              `json:"relaxed" example:"false"`
	Count        int               `json:"count" example:"5"`
	TotalMatched int               `json:"total_matched" example:"12"`
	Listings     []ListingResponse `json:"listings"`
}

// SearchDefaultsResponse represents search-form defaults derived from
// the loaded dataset
// @name HandlerSearchDefaultsResponse
type SearchDefaultsResponse struct {
	Types        []string `json:"types"`
	Cities       []string `json:"cities"`
	MinBedrooms  int      `json:"min_bedrooms" example:"0"`
	MaxBedrooms  int      `json:"max_bedrooms" example:"7"`
	MinBathrooms int      `json:"min_bathrooms" example:"0"`
	MaxBathrooms int      `json:"max_bathrooms" example:"5"`
	MinSize      string   `json:"min_size" example:"40"`
	MaxSize      string   `json:"max_size" example:"600"`
	MinPrice     string   `json:"min_price" example:"250000"`
	MaxPrice     string   `json:"max_price" example:"12000000"`
}

// Recommend godoc
// @ID           searchRecommendations
// @Summary      Search property recommendations
// @Description  Returns up to limit listings matching the criteria, sorted by ascending price. When nothing satisfies the full constraint set, the type and city constraints are retried alone and the result is flagged relaxed.
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body SearchRequest true "Search criteria"
// @Success      200 {object} APIResponse[RecommendationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /search/recommendations [post]
func (h *SearchHandler) Recommend(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if details := req.crossFieldErrors(); len(details) > 0 {
		h.ValidationError(c, details)
		return
	}

	rec, err := h.recommender.Recommend(c.Request.Context(), req.toCriteria(), req.Limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecommendationResponse(rec))
}

// GetDefaults godoc
// @ID           getSearchDefaults
// @Summary      Get search defaults
// @Description  Returns the distinct listing types and cities plus the observed value ranges, for populating search forms
// @Tags         search
// @Produce      json
// @Success      200 {object} APIResponse[SearchDefaultsResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /search/defaults [get]
func (h *SearchHandler) GetDefaults(c *gin.Context) {
	defaults, err := h.defaults.Defaults(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, SearchDefaultsResponse{
		Types:        defaults.Types,
		Cities:       defaults.Cities,
		MinBedrooms:  defaults.MinBedrooms,
		MaxBedrooms:  defaults.MaxBedrooms,
		MinBathrooms: defaults.MinBathrooms,
		MaxBathrooms: defaults.MaxBathrooms,
		MinSize:      defaults.MinSize.String(),
		MaxSize:      defaults.MaxSize.String(),
		MinPrice:     defaults.MinPrice.String(),
		MaxPrice:     defaults.MaxPrice.String(),
	})
}

// crossFieldErrors checks the max >= min pairs the field tags cannot express
func (r *SearchRequest) crossFieldErrors() []dto.ValidationDetail {
	var details []dto.ValidationDetail
	if r.MinSize != nil && r.MaxSize != nil && *r.MaxSize < *r.MinSize {
		details = append(details, dto.ValidationDetail{
			Field:   "max_size",
			Message: "Must be greater than or equal to min_size",
		})
	}
	if r.MinPrice != nil && r.MaxPrice != nil && *r.MaxPrice < *r.MinPrice {
		details = append(details, dto.ValidationDetail{
			Field:   "max_price",
			Message: "Must be greater than or equal to min_price",
		})
	}
	return details
}

func (r *SearchRequest) toCriteria() listing.SearchCriteria {
	criteria := listing.SearchCriteria{
		Type:         r.Type,
		City:         r.City,
		MinBedrooms:  r.MinBedrooms,
		MinBathrooms: r.MinBathrooms,
	}
	if r.MinSize != nil {
		criteria.MinSize = toDecimalPtr(*r.MinSize)
	}
	if r.MaxSize != nil {
		criteria.MaxSize = toDecimalPtr(*r.MaxSize)
	}
	if r.MinPrice != nil {
		criteria.MinPrice = toDecimalPtr(*r.MinPrice)
	}
	if r.MaxPrice != nil {
		criteria.MaxPrice = toDecimalPtr(*r.MaxPrice)
	}
	return criteria
}

func toListingResponse(l *listing.Listing) ListingResponse {
	return ListingResponse{
		ID:             l.ID.String(),
		Type:           l.Type,
		Title:          l.Title,
		Location:       l.Location,
		City:           l.City,
		Bedrooms:       l.Bedrooms,
		Bathrooms:      l.Bathrooms,
		SizeSqm:        l.SizeSqm.InexactFloat64(),
		Price:          l.Price.String(),
		FormattedPrice: l.FormattedPrice,
		PhoneNumber:    l.PhoneNumber,
		ImageLink:      l.ImageLink,
	}
}

func toRecommendationResponse(rec *listing.Recommendation) RecommendationResponse {
	listings := make([]ListingResponse, 0, len(rec.Listings))
	for _, l := range rec.Listings {
		listings = append(listings, toListingResponse(l))
	}
	return RecommendationResponse{
		Relaxed:      rec.Relaxed,
		Count:        len(listings),
		TotalMatched: rec.TotalMatched,
		Listings:     listings,
	}
}
