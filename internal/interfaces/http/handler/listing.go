package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/interfaces/http/dto"
	"github.com/homefinder/backend/internal/interfaces/http/middleware"
)

// ListingHandler handles listing browsing API endpoints
type ListingHandler struct {
	BaseHandler
	tables listing.TableProvider
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(tables listing.TableProvider) *ListingHandler {
	return &ListingHandler{tables: tables}
}

// ListListingsRequest represents listing page query parameters
// @name HandlerListListingsRequest
type ListListingsRequest struct {
	Limit  int `form:"limit" binding:"omitempty,gte=1,lte=100" example:"20"`
	Offset int `form:"offset" binding:"omitempty,gte=0" example:"0"`
}

// ListListingsResponse represents one page of the cleaned table
// @name HandlerListListingsResponse
type ListListingsResponse struct {
	Total    int               `json:"total" example:"985"`
	Limit    int               `json:"limit" example:"20"`
	Offset   int               `json:"offset" example:"0"`
	Listings []ListingResponse `json:"listings"`
}

// defaultPageLimit is the page size used when the query omits limit
const defaultPageLimit = 20

// ListListings godoc
// @ID           listListings
// @Summary      List listings
// @Description  Returns one page of the cleaned listings table, sorted by ascending price
// @Tags         listings
// @Produce      json
// @Param        limit  query int false "Page size (1-100)" default(20)
// @Param        offset query int false "Page offset" default(0)
// @Success      200 {object} APIResponse[ListListingsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /listings [get]
func (h *ListingHandler) ListListings(c *gin.Context) {
	var req ListListingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultPageLimit
	}

	table, err := h.tables.Current(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	byPrice := table.ListingsByPrice()
	page := paginate(byPrice, req.Limit, req.Offset)

	listings := make([]ListingResponse, 0, len(page))
	for _, l := range page {
		listings = append(listings, toListingResponse(l))
	}

	h.Success(c, ListListingsResponse{
		Total:    len(byPrice),
		Limit:    req.Limit,
		Offset:   req.Offset,
		Listings: listings,
	})
}

// GetListing godoc
// @ID           getListing
// @Summary      Get a listing
// @Description  Returns a single listing by its id
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Success      200 {object} APIResponse[ListingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /listings/{id} [get]
func (h *ListingHandler) GetListing(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return
	}

	table, err := h.tables.Current(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	l, ok := table.Get(id)
	if !ok {
		h.NotFound(c, "Listing not found")
		return
	}

	h.Success(c, toListingResponse(l))
}

// paginate slices one page out of listings, clamping out-of-range offsets
func paginate(listings []*listing.Listing, limit, offset int) []*listing.Listing {
	if offset >= len(listings) {
		return nil
	}
	end := offset + limit
	if end > len(listings) {
		end = len(listings)
	}
	return listings[offset:end]
}
