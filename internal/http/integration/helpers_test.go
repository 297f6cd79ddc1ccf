package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	apphttp "github.com/geocoder89/todohub/internal/http"
	"github.com/geocoder89/todohub/internal/repo/memory"
	"github.com/geocoder89/todohub/internal/security"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{
		Env:                    "test",
		StoreDriver:            "memory",
		JWTSecret:              strings.Repeat("k", 32), // deterministic test secret
		JWTAccessTTLMinutes:    30,
		BcryptCost:             bcrypt.MinCost,
		HashWorkers:            2,
		LoginRateLimit:         100,
		LoginRateWindowSeconds: 60,
		MaxBodyBytes:           1 << 20,
	}
}

type testApp struct {
	router http.Handler
	users  *memory.UsersRepo
	todos  *memory.TodosRepo
	tokens *auth.Manager
}

func setupTestApp(t *testing.T, mutate ...func(*config.Config, *apphttp.Deps)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()

	hasher, err := security.NewHasher(cfg.BcryptCost, cfg.HashWorkers, nil)
	if err != nil {
		t.Fatalf("failed to create hasher: %v", err)
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	app := &testApp{
		users:  memory.NewUsersRepo(),
		todos:  memory.NewTodosRepo(),
		tokens: tokens,
	}

	deps := apphttp.Deps{
		Users:  app.users,
		Todos:  app.todos,
		Hasher: hasher,
		Tokens: tokens,
	}

	for _, fn := range mutate {
		fn(&cfg, &deps)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	app.router = apphttp.NewRouter(logger, cfg, deps)

	return app
}

type apiErrorResponse struct {
	Error struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func doLogin(router http.Handler, username, password string) *httptest.ResponseRecorder {
	return doLoginFrom(router, username, password, "")
}

// doLoginFrom sets X-Forwarded-For when forwardedFor is not empty.
func doLoginFrom(router http.Handler, username, password, forwardedFor string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func registerUser(t *testing.T, router http.Handler, username, password string) {
	t.Helper()

	body := `{"username":"` + username + `","email":"` + username + `@example.com",` +
		`"first_name":"Test","last_name":"User","password":"` + password + `","role":"user"}`

	w := doRequest(router, http.MethodPost, "/auth/", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: got status %d, want %d, body=%s", username, w.Code, http.StatusCreated, w.Body.String())
	}
}

func loginToken(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()

	w := doLogin(router, username, password)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: got status %d, want %d, body=%s", username, w.Code, http.StatusOK, w.Body.String())
	}

	var resp tokenResponse
	mustReadJSON(t, w, &resp)

	if resp.AccessToken == "" {
		t.Fatalf("expected non-empty access token")
	}

	return resp.AccessToken
}

func assertUnauthorized(t *testing.T, w *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}
	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("expected WWW-Authenticate Bearer, got %q", got)
	}

	var resp apiErrorResponse
	mustReadJSON(t, w, &resp)

	if resp.Error.Code != "unauthorized" {
		t.Fatalf("unexpected error code: %s", resp.Error.Code)
	}

	return resp
}

func doRequestWithHeader(router http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", authorization)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}
