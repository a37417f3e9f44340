package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homefinder/backend/internal/domain/shared"
	"github.com/homefinder/backend/internal/interfaces/http/dto"
	"github.com/homefinder/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides the response vocabulary shared by the HTTP handlers
type BaseHandler struct{}

// getRequestID reads the ID the RequestID middleware stored on the gin
// context, falling back to the inbound header
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(middleware.HeaderRequestID)
}

// Success writes a 200 envelope around data
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error writes an error envelope with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest writes a 400 bad request envelope
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound writes a 404 not found envelope
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// ValidationError writes a 400 with per-field details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// HandleDomainError maps a domain error, wrapped or not, onto the wire
// format. Anything that is not a DomainError surfaces as a 500 without
// leaking its message.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
