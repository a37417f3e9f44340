package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homefinder/backend/internal/interfaces/http/dto"
)

// BodyLimit caps the request body at maxBytes. A request declaring a
// larger Content-Length is rejected before the handler runs; chunked
// bodies are capped by MaxBytesReader so the first read past the limit
// fails inside the handler.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds the maximum allowed size",
				requestIDFrom(c),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
