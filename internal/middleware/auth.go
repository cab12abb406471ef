package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// InternalAuth guards the internal API surface. Callers must present the
// shared key in the X-Internal-API-Key header; the key is read once from
// INTERNAL_API_KEY when the router is built.
func InternalAuth() gin.HandlerFunc {
	key := os.Getenv("INTERNAL_API_KEY")
	if key == "" {
		log.Error().Msg("INTERNAL_API_KEY is not set, internal routes will reject all requests")
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: INTERNAL_API_KEY not set",
			})
		}
	}

	// Comparing fixed-length digests keeps the comparison constant-time
	// without leaking the key length
	want := sha256.Sum256([]byte(key))

	return func(c *gin.Context) {
		got := sha256.Sum256([]byte(c.GetHeader("X-Internal-API-Key")))
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
