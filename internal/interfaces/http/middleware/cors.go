package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig describes which cross-origin requests the API accepts.
// An empty AllowOrigins list rejects every cross-origin request until
// origins are configured explicitly.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// CORSWithConfig returns a CORS middleware for the given configuration.
// Preflight OPTIONS requests are always answered with 204; CORS headers
// are only attached when the Origin is in the whitelist (or "*" is
// whitelisted).
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, ok := cfg.resolveOrigin(c.GetHeader("Origin"))

		if c.Request.Method == http.MethodOptions {
			if ok {
				cfg.writeHeaders(c, allowed)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if ok {
			cfg.writeHeaders(c, allowed)
		}
		c.Next()
	}
}

// resolveOrigin returns the Access-Control-Allow-Origin value for the
// request origin, or false when no CORS headers should be set.
func (cfg CORSConfig) resolveOrigin(origin string) (string, bool) {
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			return "*", true
		}
		if o == origin && origin != "" {
			return origin, true
		}
	}
	return "", false
}

func (cfg CORSConfig) writeHeaders(c *gin.Context, allowedOrigin string) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", allowedOrigin)
	// Browsers reject credentialed responses with a wildcard origin.
	if cfg.AllowCredentials && allowedOrigin != "*" {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if len(cfg.AllowMethods) > 0 {
		h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
	}
	if len(cfg.AllowHeaders) > 0 {
		h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
	}
	if len(cfg.ExposeHeaders) > 0 {
		h.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
	}
	if cfg.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
	}
}
