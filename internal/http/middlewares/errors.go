package middlewares

import (
	"github.com/gin-gonic/gin"
)

// abortWithError writes the API error envelope; handlers.RespondError
// produces the same shape for handler-level failures.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": requestIDFrom(c),
		},
	})
}
