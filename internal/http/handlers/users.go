package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersHandler struct {
	users  UserStore
	hasher PasswordHasher
}

func NewUsersHandler(users UserStore, hasher PasswordHasher) *UsersHandler {
	return &UsersHandler{users: users, hasher: hasher}
}

// GetMe returns the caller's own record; the hash is excluded by the json tags.
func (h *UsersHandler) GetMe(ctx *gin.Context, s Scope) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, s.Identity.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		s.Log.ErrorContext(cctx, "get user", "err", err)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) ChangePassword(ctx *gin.Context, s Scope) {
	var req user.ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, s.Identity.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx)
			return
		}

		s.Log.ErrorContext(cctx, "change password: load user", "err", err)
		RespondInternal(ctx, "Could not change password")
		return
	}

	ok, err := h.hasher.Verify(cctx, req.Password, u.HashedPassword)
	if err != nil {
		s.Log.ErrorContext(cctx, "change password: verify", "err", err)
		RespondInternal(ctx, "Could not change password")
		return
	}

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	hash, err := h.hasher.Hash(cctx, req.NewPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			respondPasswordTooLong(ctx, "new_password")
			return
		}

		s.Log.ErrorContext(cctx, "change password: hash", "err", err)
		RespondInternal(ctx, "Could not change password")
		return
	}

	if err := h.users.UpdatePassword(cctx, u.ID, hash); err != nil {
		s.Log.ErrorContext(cctx, "change password: update", "err", err)
		RespondInternal(ctx, "Could not change password")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *UsersHandler) ChangePhoneNumber(ctx *gin.Context, s Scope) {
	var p user.PhoneNumberParam

	if !BindURI(ctx, &p) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	err := h.users.UpdatePhoneNumber(cctx, s.Identity.UserID, p.PhoneNumber)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		s.Log.ErrorContext(cctx, "change phone number", "err", err)
		RespondInternal(ctx, "Could not change phone number")
		return
	}

	ctx.Status(http.StatusNoContent)
}
