package handlers

import (
	"log/slog"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Scope is built once per protected request and handed to the handler as a
// parameter; nothing about the caller is read from globals.
type Scope struct {
	Identity auth.Identity
	Log      *slog.Logger
}

type ScopedHandler func(ctx *gin.Context, s Scope)

// Protected applies the identity half of the authorization gate. Requests
// that reach it without a resolved identity are rejected with 401.
func Protected(log *slog.Logger, fn ScopedHandler) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx *gin.Context) {
		id, err := auth.RequireIdentity(middlewares.IdentityFromContext(ctx))
		if err != nil {
			RespondUnauthorized(ctx)
			return
		}

		fn(ctx, Scope{
			Identity: id,
			Log:      log.With("request_id", requestIDFrom(ctx), "user_id", id.UserID),
		})
	}
}
