package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type TokenService interface {
	handlers.TokenIssuer
	Validate(token string) (auth.Identity, error)
}

// Deps are the collaborators the router wires into handlers. Prom and
// Gatherer may be nil; Limiter falls back to an in-process window.
type Deps struct {
	Users    handlers.UserStore
	Todos    handlers.TodoStore
	Hasher   handlers.PasswordHasher
	Tokens   TokenService
	Limiter  middlewares.Limiter
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     func(ctx context.Context) error

	// ShuttingDown flips /readyz to 503 while the server drains.
	ShuttingDown func() bool
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// nil trusts no proxy, so forwarded headers cannot pick the rate-limit key
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error("invalid TRUSTED_PROXIES, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware("todohub"))
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health
	ping := func() error {
		if deps.Ping == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping, deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// a nil *Prom must not end up inside a non-nil interface
	var authObs middlewares.AuthObserver
	if deps.Prom != nil {
		authObs = deps.Prom
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middlewares.NewMemoryLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow())
	}

	// wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Hasher, deps.Tokens, authObs, log)
	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Hasher)
	todosHandler := handlers.NewTodosHandler(deps.Todos)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens, authObs)
	protected := func(fn handlers.ScopedHandler) gin.HandlerFunc {
		return handlers.Protected(log, fn)
	}

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/", middlewares.RequireJSON(), authHandler.Register)
		authGroup.POST("/token",
			middlewares.RateLimit(limiter, "login", middlewares.KeyByIP),
			authHandler.Login,
		)
	}

	userGroup := r.Group("/user", authMW.RequireAuth())
	{
		userGroup.GET("/", protected(usersHandler.GetMe))
		userGroup.PUT("/password", middlewares.RequireJSON(), protected(usersHandler.ChangePassword))
		userGroup.PUT("/phonenumber/:phone_number", protected(usersHandler.ChangePhoneNumber))
	}

	todoGroup := r.Group("/todos", authMW.RequireAuth())
	{
		todoGroup.GET("/", protected(todosHandler.List))
		todoGroup.POST("/todo", middlewares.RequireJSON(), protected(todosHandler.Create))
		todoGroup.GET("/todo/:todo_id", protected(todosHandler.Get))
		todoGroup.PUT("/todo/:todo_id", middlewares.RequireJSON(), protected(todosHandler.Update))
		todoGroup.DELETE("/todo/:todo_id", protected(todosHandler.Delete))
	}

	return r
}
