package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/todohub/internal/domain/user"
)

type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]user.User
	byName map[string]int64
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:  make(map[int64]user.User),
		byName: make(map[string]int64),
	}
}

func (r *UsersRepo) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[nu.Username]; taken {
		return user.User{}, user.ErrUsernameTaken
	}

	r.nextID++
	now := time.Now().UTC()
	u := user.User{
		ID:             r.nextID,
		Username:       nu.Username,
		Email:          nu.Email,
		FirstName:      nu.FirstName,
		LastName:       nu.LastName,
		HashedPassword: nu.HashedPassword,
		Role:           nu.Role,
		PhoneNumber:    copyString(nu.PhoneNumber),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	r.items[u.ID] = u
	r.byName[u.Username] = u.ID

	return cloneUser(u), nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return cloneUser(r.items[id]), nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return cloneUser(u), nil
}

func (r *UsersRepo) UpdatePassword(_ context.Context, id int64, hashedPassword string) error {
	return r.update(id, func(u *user.User) {
		u.HashedPassword = hashedPassword
	})
}

func (r *UsersRepo) UpdatePhoneNumber(_ context.Context, id int64, phone string) error {
	return r.update(id, func(u *user.User) {
		u.PhoneNumber = &phone
	})
}

func (r *UsersRepo) Ping(context.Context) error {
	return nil
}

func (r *UsersRepo) update(id int64, fn func(*user.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}

	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}

func cloneUser(u user.User) user.User {
	u.PhoneNumber = copyString(u.PhoneNumber)
	return u
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
