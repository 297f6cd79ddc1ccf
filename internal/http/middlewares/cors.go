package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ",")
	// clients need the request id for support and Retry-After for the login limiter
	corsExposed = strings.Join([]string{requestIDHeader, "Retry-After", "ETag"}, ",")
)

// CORSMiddleware echoes allowed origins only. Credentials travel in the
// Authorization header, never in cookies, so Allow-Credentials is not sent.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))

	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		_, ok := allowed[origin]

		if origin != "" {
			ctx.Header("Vary", "Origin")
		}

		if ok {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Expose-Headers", corsExposed)
		}

		if ctx.Request.Method == http.MethodOptions {
			if ok {
				ctx.Header("Access-Control-Allow-Methods", corsMethods)
				ctx.Header("Access-Control-Allow-Headers", "Authorization,Content-Type,"+requestIDHeader)
				ctx.Header("Access-Control-Max-Age", "600")
			}
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
