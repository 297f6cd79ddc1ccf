package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON guards JSON routes; the login route takes a form body and is not wrapped.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			// ContentType drops parameters such as "; charset=utf-8"
			if c.ContentType() != gin.MIMEJSON {
				abortWithError(c, http.StatusUnsupportedMediaType,
					"unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
