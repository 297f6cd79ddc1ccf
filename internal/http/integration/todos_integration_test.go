package integration_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/todohub/internal/config"
	apphttp "github.com/geocoder89/todohub/internal/http"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type todoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
	OwnerID     int64  `json:"owner_id"`
}

const todoBody = `{"title":"buy milk","description":"two litres","priority":3,"complete":false}`

func createTodo(t *testing.T, router http.Handler, token string) todoResponse {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/todos/todo", todoBody, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create todo: got status %d, body=%s", w.Code, w.Body.String())
	}

	var created todoResponse
	mustReadJSON(t, w, &created)

	return created
}

func TestTodoLifecycle(t *testing.T) {
	app := setupTestApp(t)
	registerUser(t, app.router, "alice", "s3cret!")
	token := loginToken(t, app.router, "alice", "s3cret!")

	created := createTodo(t, app.router, token)
	path := fmt.Sprintf("/todos/todo/%d", created.ID)

	w := doRequest(app.router, http.MethodGet, path, "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("get todo: got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doRequest(app.router, http.MethodPut, path,
		`{"title":"buy oat milk","description":"two litres","priority":5,"complete":true}`, token)
	if w.Code != http.StatusNoContent {
		t.Fatalf("update todo: got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doRequest(app.router, http.MethodGet, "/todos/", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("list todos: got status %d, body=%s", w.Code, w.Body.String())
	}

	var list []todoResponse
	mustReadJSON(t, w, &list)

	if len(list) != 1 || !list[0].Complete || list[0].Priority != 5 {
		t.Fatalf("unexpected list after update: %+v", list)
	}

	w = doRequest(app.router, http.MethodDelete, path, "", token)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete todo: got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doRequest(app.router, http.MethodGet, path, "", token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get deleted todo: got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestTodoListETag(t *testing.T) {
	app := setupTestApp(t)
	registerUser(t, app.router, "alice", "s3cret!")
	token := loginToken(t, app.router, "alice", "s3cret!")
	createTodo(t, app.router, token)

	w := doRequest(app.router, http.MethodGet, "/todos/", "", token)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header on list")
	}

	req := doRequestWithHeader(app.router, "/todos/", "Bearer "+token)
	if req.Header().Get("ETag") != etag {
		t.Fatalf("ETag changed between identical reads")
	}
}

func TestForeignTodoLooksMissing(t *testing.T) {
	app := setupTestApp(t)
	registerUser(t, app.router, "alice", "s3cret!")
	registerUser(t, app.router, "bob", "s3cret!")

	aliceToken := loginToken(t, app.router, "alice", "s3cret!")
	bobToken := loginToken(t, app.router, "bob", "s3cret!")

	bobs := createTodo(t, app.router, bobToken)
	path := fmt.Sprintf("/todos/todo/%d", bobs.ID)

	missing := doRequest(app.router, http.MethodGet, "/todos/todo/9999", "", aliceToken)

	cases := []struct {
		method string
		body   string
	}{
		{http.MethodGet, ""},
		{http.MethodPut, todoBody},
		{http.MethodDelete, ""},
	}

	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			w := doRequest(app.router, tc.method, path, tc.body, aliceToken)

			if w.Code != http.StatusNotFound {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusNotFound, w.Body.String())
			}

			var got, want apiErrorResponse
			mustReadJSON(t, w, &got)
			mustReadJSON(t, missing, &want)

			if got.Error.Code != want.Error.Code || got.Error.Message != want.Error.Message {
				t.Fatalf("foreign todo distinguishable from missing: %+v vs %+v", got.Error, want.Error)
			}
		})
	}

	// bob's todo is untouched
	w := doRequest(app.router, http.MethodGet, path, "", bobToken)
	if w.Code != http.StatusOK {
		t.Fatalf("owner read after foreign attempts: got status %d, body=%s", w.Code, w.Body.String())
	}

	var still todoResponse
	mustReadJSON(t, w, &still)

	if still.Title != "buy milk" {
		t.Fatalf("foreign update leaked through: %+v", still)
	}

	w = doRequest(app.router, http.MethodGet, "/todos/", "", aliceToken)

	var aliceList []todoResponse
	mustReadJSON(t, w, &aliceList)

	if len(aliceList) != 0 {
		t.Fatalf("alice sees todos she does not own: %+v", aliceList)
	}
}

func TestForeignTodoInvalidBodyIsBadRequest(t *testing.T) {
	app := setupTestApp(t)
	registerUser(t, app.router, "alice", "s3cret!")
	registerUser(t, app.router, "bob", "s3cret!")

	aliceToken := loginToken(t, app.router, "alice", "s3cret!")
	bobs := createTodo(t, app.router, loginToken(t, app.router, "bob", "s3cret!"))

	w := doRequest(app.router, http.MethodPut, fmt.Sprintf("/todos/todo/%d", bobs.ID),
		`{"title":"x","description":"two litres","priority":3}`, aliceToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	missing := doRequest(app.router, http.MethodPut, "/todos/todo/9999",
		`{"title":"x","description":"two litres","priority":3}`, aliceToken)
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("missing todo with bad body: got status %d", missing.Code)
	}
}

func TestTodoValidation(t *testing.T) {
	app := setupTestApp(t)
	registerUser(t, app.router, "alice", "s3cret!")
	token := loginToken(t, app.router, "alice", "s3cret!")

	w := doRequest(app.router, http.MethodPost, "/todos/todo",
		`{"title":"ok title","description":"fine","priority":9}`, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("priority out of range: got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doRequest(app.router, http.MethodGet, "/todos/todo/abc", "", token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	app := setupTestApp(t, func(_ *config.Config, deps *apphttp.Deps) {
		deps.Prom = observability.NewProm(reg)
		deps.Gatherer = reg
	})

	for _, path := range []string{"/healthz", "/readyz"} {
		w := doRequest(app.router, http.MethodGet, path, "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: got status %d", path, w.Code)
		}
	}

	assertUnauthorized(t, doRequest(app.router, http.MethodGet, "/todos/", "", ""))

	w := doRequest(app.router, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: got status %d", w.Code)
	}

	for _, name := range []string{"todohub_http_requests_total", "todohub_auth_results_total"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestReadyzReportsStoreFailure(t *testing.T) {
	app := setupTestApp(t, func(_ *config.Config, deps *apphttp.Deps) {
		deps.Ping = func(context.Context) error { return errors.New("db down") }
	})

	w := doRequest(app.router, http.MethodGet, "/readyz", "", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
