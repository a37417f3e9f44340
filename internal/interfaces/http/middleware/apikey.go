package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/homefinder/backend/internal/interfaces/http/dto"
)

// APIKeyHeader is the header carrying the admin API key
const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns a middleware that guards administrative endpoints
// with a pre-shared API key. The configured value is a bcrypt hash so the
// plaintext key never appears in config files. An empty hash disables the
// guarded endpoints entirely.
func APIKeyAuth(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := requestIDFrom(c)

		if keyHash == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound,
				"Administrative endpoints are disabled",
				requestID,
			))
			return
		}

		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"Missing API key",
				requestID,
			))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"Invalid API key",
				requestID,
			))
			return
		}

		c.Next()
	}
}
