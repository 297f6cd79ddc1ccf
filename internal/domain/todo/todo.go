package todo

import "errors"

var ErrNotFound = errors.New("todo not found")

type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
	OwnerID     int64  `json:"owner_id"`
}

// Request is the full payload for both create and update.
type Request struct {
	Title       string `json:"title" binding:"required,min=3"`
	Description string `json:"description" binding:"required,min=3,max=100"`
	Priority    int    `json:"priority" binding:"required,gt=0,lt=6"`
	Complete    bool   `json:"complete"`
}

type IDParam struct {
	ID int64 `uri:"todo_id" binding:"required,gt=0"`
}

func NewFromRequest(req Request, ownerID int64) Todo {
	return Todo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Complete:    req.Complete,
		OwnerID:     ownerID,
	}
}
