package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/gin-gonic/gin"
)

type TodoStore interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]todo.Todo, error)
	GetByID(ctx context.Context, id int64) (todo.Todo, error)
	Create(ctx context.Context, t todo.Todo) (todo.Todo, error)
	Update(ctx context.Context, t todo.Todo) error
	Delete(ctx context.Context, id, ownerID int64) error
}

type TodosHandler struct {
	todos TodoStore
}

func NewTodosHandler(todos TodoStore) *TodosHandler {
	return &TodosHandler{todos: todos}
}

func (h *TodosHandler) List(ctx *gin.Context, s Scope) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.todos.ListByOwner(cctx, s.Identity.UserID)
	if err != nil {
		s.Log.ErrorContext(cctx, "list todos", "err", err)
		RespondInternal(ctx, "Could not list todos")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

func (h *TodosHandler) Get(ctx *gin.Context, s Scope) {
	t, ok := h.loadOwned(ctx, s)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TodosHandler) Create(ctx *gin.Context, s Scope) {
	var req todo.Request

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	created, err := h.todos.Create(cctx, todo.NewFromRequest(req, s.Identity.UserID))
	if err != nil {
		s.Log.ErrorContext(cctx, "create todo", "err", err)
		RespondInternal(ctx, "Could not create todo")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *TodosHandler) Update(ctx *gin.Context, s Scope) {
	var req todo.Request

	// body errors win over ownership, as they would for the caller's own todo
	if !BindJSON(ctx, &req) {
		return
	}

	current, ok := h.loadOwned(ctx, s)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	updated := todo.NewFromRequest(req, current.OwnerID)
	updated.ID = current.ID

	if err := h.todos.Update(cctx, updated); err != nil {
		h.respondStoreError(ctx, s, "update todo", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *TodosHandler) Delete(ctx *gin.Context, s Scope) {
	current, ok := h.loadOwned(ctx, s)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.todos.Delete(cctx, current.ID, current.OwnerID); err != nil {
		h.respondStoreError(ctx, s, "delete todo", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// loadOwned fetches the todo named in the path and applies the ownership
// half of the gate. Missing and foreign todos both come back as 404.
func (h *TodosHandler) loadOwned(ctx *gin.Context, s Scope) (todo.Todo, bool) {
	var p todo.IDParam

	if !BindURI(ctx, &p) {
		return todo.Todo{}, false
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.todos.GetByID(cctx, p.ID)
	if err == nil {
		err = auth.RequireOwner(s.Identity, t.OwnerID)
	}

	if err != nil {
		h.respondStoreError(ctx, s, "load todo", err)
		return todo.Todo{}, false
	}

	return t, true
}

func (h *TodosHandler) respondStoreError(ctx *gin.Context, s Scope, op string, err error) {
	if errors.Is(err, todo.ErrNotFound) || errors.Is(err, auth.ErrNotOwned) {
		RespondNotFound(ctx, "Todo not found.")
		return
	}

	s.Log.ErrorContext(ctx.Request.Context(), op, "err", err)
	RespondInternal(ctx, "Could not process todo")
}
