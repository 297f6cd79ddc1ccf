package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenValidator interface {
	Validate(token string) (auth.Identity, error)
}

// AuthObserver counts resolver outcomes; observability.Prom implements it.
type AuthObserver interface {
	ObserveAuth(op, result string)
}

type AuthMiddleware struct {
	tokens   TokenValidator
	observer AuthObserver
}

func NewAuthMiddleware(tokens TokenValidator, observer AuthObserver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, observer: observer}
}

const (
	ctxIdentityKey = "auth.identity"
	bearerScheme   = "Bearer "
	// same body for missing and invalid credentials
	unauthorizedMessage = "Could not validate user identity."
)

// BearerToken pulls the token out of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingCredential
	}

	if !strings.HasPrefix(header, bearerScheme) {
		return "", auth.ErrInvalidCredential
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerScheme))
	if raw == "" {
		return "", auth.ErrMissingCredential
	}

	return raw, nil
}

// RequireAuth resolves the caller for the request or aborts with 401 before
// any handler runs. It never falls back to an anonymous identity.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var id auth.Identity
			id, err = m.tokens.Validate(raw)
			if err == nil {
				m.observe("ok")

				c.Set(ctxIdentityKey, id)
				c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

				c.Next()
				return
			}
		}

		result := "invalid"
		if errors.Is(err, auth.ErrMissingCredential) {
			result = "missing"
		}
		m.observe(result)

		slog.Default().DebugContext(c.Request.Context(), "auth_rejected",
			"result", result,
			"reason", auth.Reason(err),
			"path", c.Request.URL.Path,
		)

		AbortUnauthorized(c)
	}
}

func (m *AuthMiddleware) observe(result string) {
	if m.observer != nil {
		m.observer.ObserveAuth("token", result)
	}
}

// AbortUnauthorized writes the single 401 shape used for every credential failure.
func AbortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	abortWithError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
}

// IdentityFromContext returns nil when the resolver did not run or rejected the request.
func IdentityFromContext(c *gin.Context) *auth.Identity {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return nil
	}
	id, ok := v.(auth.Identity)
	if !ok {
		return nil
	}
	return &id
}

func requestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
