package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID between client and server.
const HeaderRequestID = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID header, or mints a new
// UUID when the header is absent. The ID is stored in the gin context
// under "request_id" and echoed back on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}
