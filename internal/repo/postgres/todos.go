package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/jackc/pgx/v5"
)

type TodosRepo struct {
	db   DBTX
	prom Observer
}

func NewTodosRepo(db DBTX, prom Observer) *TodosRepo {
	return &TodosRepo{db: db, prom: prom}
}

func (r *TodosRepo) ListByOwner(ctx context.Context, ownerID int64) ([]todo.Todo, error) {
	out := make([]todo.Todo, 0)

	err := observe(r.prom, "todos.list_by_owner", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT id, title, description, priority, complete, owner_id
			 FROM todos
			 WHERE owner_id = $1
			 ORDER BY id ASC`,
			ownerID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t todo.Todo
			if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Complete, &t.OwnerID); err != nil {
				return err
			}
			out = append(out, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	return out, nil
}

// GetByID loads a todo regardless of owner; the caller applies the ownership gate.
func (r *TodosRepo) GetByID(ctx context.Context, id int64) (todo.Todo, error) {
	var t todo.Todo

	err := observe(r.prom, "todos.get_by_id", func() error {
		return r.db.QueryRow(ctx,
			`SELECT id, title, description, priority, complete, owner_id FROM todos WHERE id = $1`,
			id,
		).Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Complete, &t.OwnerID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return todo.Todo{}, todo.ErrNotFound
		}
		return todo.Todo{}, fmt.Errorf("get todo: %w", err)
	}

	return t, nil
}

func (r *TodosRepo) Create(ctx context.Context, t todo.Todo) (todo.Todo, error) {
	err := observe(r.prom, "todos.create", func() error {
		return r.db.QueryRow(ctx,
			`INSERT INTO todos (title, description, priority, complete, owner_id)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			t.Title, t.Description, t.Priority, t.Complete, t.OwnerID,
		).Scan(&t.ID)
	})

	if err != nil {
		return todo.Todo{}, fmt.Errorf("create todo: %w", err)
	}

	return t, nil
}

// Update and Delete keep the owner in the WHERE clause so a write can never
// land on another user's row.
func (r *TodosRepo) Update(ctx context.Context, t todo.Todo) error {
	return r.execOwned(ctx, "todos.update",
		`UPDATE todos
		 SET title = $3, description = $4, priority = $5, complete = $6
		 WHERE id = $1 AND owner_id = $2`,
		t.ID, t.OwnerID, t.Title, t.Description, t.Priority, t.Complete,
	)
}

func (r *TodosRepo) Delete(ctx context.Context, id, ownerID int64) error {
	return r.execOwned(ctx, "todos.delete",
		`DELETE FROM todos WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
}

func (r *TodosRepo) execOwned(ctx context.Context, op, sql string, args ...any) error {
	var affected int64

	err := observe(r.prom, op, func() error {
		tag, err := r.db.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return todo.ErrNotFound
	}

	return nil
}
