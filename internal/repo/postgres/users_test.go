package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{
	"id", "username", "email", "first_name", "last_name", "hashed_password",
	"role", "phone_number", "is_active", "created_at", "updated_at",
}

func userRow(phone string) *pgxmock.Rows {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return pgxmock.NewRows(userCols).
		AddRow(int64(1), "alice", "alice@example.com", "Alice", "Liddell", "$2a$04$hash", "user", &phone, true, now, now)
}

func TestUsersRepo_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "inserted",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "alice@example.com", "Alice", "Liddell", "$2a$04$hash", "user", pgxmock.AnyArg()).
					WillReturnRows(userRow("555-0100"))
			},
		},
		{
			name: "duplicate username",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "alice@example.com", "Alice", "Liddell", "$2a$04$hash", "user", pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: user.ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewUsersRepo(mock, nil)
			phone := "555-0100"
			got, err := repo.Create(context.Background(), user.NewUser{
				Username:       "alice",
				Email:          "alice@example.com",
				FirstName:      "Alice",
				LastName:       "Liddell",
				HashedPassword: "$2a$04$hash",
				Role:           "user",
				PhoneNumber:    &phone,
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(1), got.ID)
				assert.True(t, got.IsActive)
				require.NotNil(t, got.PhoneNumber)
				assert.Equal(t, "555-0100", *got.PhoneNumber)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUsersRepo_GetByUsername(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantOther bool
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnRows(userRow(""))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: user.ErrNotFound,
		},
		{
			name: "connection failure",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnError(errors.New("connection refused"))
			},
			wantOther: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewUsersRepo(mock, nil).GetByUsername(context.Background(), "alice")

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantOther:
				require.Error(t, err)
				assert.NotErrorIs(t, err, user.ErrNotFound)
				assert.Contains(t, err.Error(), "connection refused")
			default:
				require.NoError(t, err)
				assert.Equal(t, "alice", got.Username)
				assert.Equal(t, "$2a$04$hash", got.HashedPassword)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUsersRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(userRow("555-0100"))

	got, err := NewUsersRepo(mock, nil).GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepo_UpdatePassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE users SET hashed_password = \$2`).
		WithArgs(int64(1), "$2a$04$new").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE users SET hashed_password = \$2`).
		WithArgs(int64(99), "$2a$04$new").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewUsersRepo(mock, nil)

	require.NoError(t, repo.UpdatePassword(context.Background(), 1, "$2a$04$new"))
	require.ErrorIs(t, repo.UpdatePassword(context.Background(), 99, "$2a$04$new"), user.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepo_UpdatePhoneNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE users SET phone_number = \$2`).
		WithArgs(int64(1), "555-0199").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewUsersRepo(mock, nil).UpdatePhoneNumber(context.Background(), 1, "555-0199"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
