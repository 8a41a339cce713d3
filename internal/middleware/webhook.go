package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookSecretHeader carries the shared secret of the inbound-mail provider.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookGuard rejects webhook calls that do not present the shared secret.
// An empty secret disables the check.
func WebhookGuard(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid webhook secret"},
			})
			return
		}
		c.Next()
	}
}
