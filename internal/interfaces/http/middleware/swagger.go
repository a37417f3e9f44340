package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// SwaggerConfig controls access to the generated API documentation.
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // gate the docs behind the admin API key
	AllowedIPs  []string // single IPs or CIDR ranges, empty allows all
}

// SwaggerProtection guards the swagger routes: 404 when disabled, 403
// outside the IP allowlist, then the optional auth middleware.
func SwaggerProtection(cfg SwaggerConfig, auth gin.HandlerFunc) gin.HandlerFunc {
	allowed := parseAllowlist(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "API documentation is not available",
			})
			return
		}

		if len(cfg.AllowedIPs) > 0 && !ipAllowed(c.ClientIP(), allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Access to API documentation is restricted",
			})
			return
		}

		if cfg.RequireAuth && auth != nil {
			auth(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// parseAllowlist converts the configured entries into prefixes, treating
// a bare IP as a single-address range. Malformed entries are skipped.
func parseAllowlist(entries []string) []netip.Prefix {
	var allowed []netip.Prefix
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			if prefix, err := netip.ParsePrefix(entry); err == nil {
				allowed = append(allowed, prefix.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			allowed = append(allowed, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return allowed
}

func ipAllowed(clientIP string, allowed []netip.Prefix) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, prefix := range allowed {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
