package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	UpdatePhoneNumber(ctx context.Context, id int64, phone string) error
}

type UserStore interface {
	UserReader
	UserWriter
}

type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, hash string) (bool, error)
	VerifyDummy(ctx context.Context, plain string) error
}

type TokenIssuer interface {
	IssueAccessToken(username string, userID int64, role string) (string, error)
}

type AuthObserver interface {
	ObserveAuth(op, result string)
}

type AuthHandler struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	metrics AuthObserver
	log     *slog.Logger
}

func NewAuthHandler(users UserStore, hasher PasswordHasher, tokens TokenIssuer, metrics AuthObserver, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		metrics: metrics,
		log:     log,
	}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates an active user with a hashed password. 201, no body.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	hash, err := h.hasher.Hash(cctx, req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			respondPasswordTooLong(ctx, "password")
			return
		}

		h.log.ErrorContext(cctx, "register: hash password", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	_, err = h.users.Create(cctx, user.NewFromCreateRequest(req, hash))
	if err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			RespondConflict(ctx, "username_taken", "Username is already in use.")
			return
		}

		h.log.ErrorContext(cctx, "register: create user", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.Status(http.StatusCreated)
}

// Login exchanges form-encoded credentials for a bearer token. Unknown users
// and wrong passwords get the same 401 and cost the same bcrypt work.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var form user.LoginForm

	if !BindForm(ctx, &form) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.authenticate(cctx, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, errBadCredentials) {
			h.observe("invalid")
			RespondUnauthorized(ctx)
			return
		}

		h.observe("error")
		h.log.ErrorContext(cctx, "login failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	token, err := h.tokens.IssueAccessToken(u.Username, u.ID, u.Role)
	if err != nil {
		h.observe("error")
		h.log.ErrorContext(cctx, "login: issue token", "err", err)
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.observe("ok")

	ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

var errBadCredentials = errors.New("bad credentials")

func (h *AuthHandler) authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := h.users.GetByUsername(ctx, username)

	if errors.Is(err, user.ErrNotFound) {
		if err := h.hasher.VerifyDummy(ctx, password); err != nil {
			return user.User{}, err
		}
		return user.User{}, errBadCredentials
	}

	if err != nil {
		return user.User{}, err
	}

	ok, err := h.hasher.Verify(ctx, password, u.HashedPassword)
	if err != nil {
		return user.User{}, err
	}

	if !ok || !u.IsActive {
		return user.User{}, errBadCredentials
	}

	return u, nil
}

func (h *AuthHandler) observe(result string) {
	if h.metrics != nil {
		h.metrics.ObserveAuth("login", result)
	}
}

// respondPasswordTooLong reports the bcrypt byte limit in the same shape as a
// validator failure on field.
func respondPasswordTooLong(ctx *gin.Context, field string) {
	RespondBadRequest(ctx, "Invalid request", gin.H{"fields": []FieldError{{
		Field:   field,
		Rule:    "max_bytes",
		Param:   strconv.Itoa(security.MaxPasswordBytes),
		Message: "must be at most " + strconv.Itoa(security.MaxPasswordBytes) + " bytes",
	}}})
}
