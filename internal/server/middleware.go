package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nutrichat/nutrichat/internal/config"
	"github.com/nutrichat/nutrichat/internal/ratelimit"
)

const corsMaxAge = 24 * time.Hour

const (
	developmentCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: blob:; connect-src 'self'"
	productionCSP  = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: blob:; connect-src 'self'"
)

// SecurityHeaders sets the browser hardening headers on every response. The
// production policy forbids inline scripts; development keeps them so the
// bundled page works without a build step.
func SecurityHeaders(production bool) gin.HandlerFunc {
	csp := developmentCSP
	if production {
		csp = productionCSP
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", csp)
		c.Next()
	}
}

// CORS echoes the Origin header back for allow-listed origins and answers
// preflight requests with 200. Origins outside the list get no CORS headers
// at all, which makes the browser reject the response on its own.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	maxAge := strconv.Itoa(int(corsMaxAge.Seconds()))

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok && origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Max-Age", maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// RateLimit enforces the per-client request budget. Rejections carry
// Retry-After plus the reset time in the body so the page can tell the user
// when to come back.
func RateLimit(limiter *ratelimit.Limiter, messages config.MessagesConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := limiter.Allow(c.ClientIP())
		if decision.Allowed {
			c.Next()
			return
		}

		retryAfter := int(time.Until(decision.ResetTime).Seconds()) + 1
		if retryAfter < 1 {
			retryAfter = 1
		}

		h := c.Writer.Header()
		h.Set("Retry-After", strconv.Itoa(retryAfter))
		h.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetTime.Unix(), 10))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"reply":     messages.RateLimited,
			"resetTime": decision.ResetTime,
		})
	}
}

// BodyLimit caps the request body size. Reads past the cap fail, which
// surfaces as a parse error in the handler rather than an unbounded read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
