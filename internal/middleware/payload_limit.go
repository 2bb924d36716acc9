// Package middleware provides HTTP middleware for the simsync server.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PayloadLimit returns a middleware that rejects request bodies larger
// than maxBytes. The API carries only small JSON payloads (ray-cast
// queries), so anything bigger is either a misconfigured client or abuse.
func PayloadLimit(maxBytes int64, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			logger.Warn().
				Str("clientIP", c.ClientIP()).
				Str("path", c.Request.URL.Path).
				Int64("contentLength", c.Request.ContentLength).
				Int64("maxBytes", maxBytes).
				Msg("oversized request rejected")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":    "request body exceeds the maximum allowed size",
				"maxBytes": maxBytes,
			})
			return
		}

		// Content-Length can lie or be absent with chunked encoding;
		// MaxBytesReader enforces the limit on the actual read.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
