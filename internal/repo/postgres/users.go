package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, first_name, last_name, hashed_password, role, phone_number, is_active, created_at, updated_at`

type UsersRepo struct {
	db   DBTX
	prom Observer
}

func NewUsersRepo(db DBTX, prom Observer) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var u user.User

	err := observe(r.prom, "users.create", func() error {
		return scanUser(r.db.QueryRow(ctx,
			`INSERT INTO users (username, email, first_name, last_name, hashed_password, role, phone_number, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
			 RETURNING `+userColumns,
			nu.Username, nu.Email, nu.FirstName, nu.LastName, nu.HashedPassword, nu.Role, nu.PhoneNumber,
		), &u)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := observe(r.prom, "users.get_by_username", func() error {
		return scanUser(r.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = $1`,
			username,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user by username: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := observe(r.prom, "users.get_by_id", func() error {
		return scanUser(r.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	return r.updateOne(ctx, "users.update_password",
		`UPDATE users SET hashed_password = $2, updated_at = NOW() WHERE id = $1`,
		id, hashedPassword,
	)
}

func (r *UsersRepo) UpdatePhoneNumber(ctx context.Context, id int64, phone string) error {
	return r.updateOne(ctx, "users.update_phone_number",
		`UPDATE users SET phone_number = $2, updated_at = NOW() WHERE id = $1`,
		id, phone,
	)
}

func (r *UsersRepo) updateOne(ctx context.Context, op, sql string, args ...any) error {
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
		return user.ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.HashedPassword,
		&u.Role,
		&u.PhoneNumber,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}
