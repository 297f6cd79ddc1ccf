package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already in use")
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the credential record. Role is carried through tokens but not
// enforced by any authorization check yet.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	HashedPassword string    `json:"-"` // never expose hash in JSON
	Role           string    `json:"role"`
	PhoneNumber    *string   `json:"phone_number"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Email       string `json:"email" binding:"required,email"`
	FirstName   string `json:"first_name" binding:"required,max=100"`
	LastName    string `json:"last_name" binding:"required,max=100"`
	Password    string `json:"password" binding:"required,min=6,max=72"`
	Role        string `json:"role" binding:"required,oneof=user admin"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=32"`
}

// NewUser is the record to insert; the caller supplies the already hashed password.
type NewUser struct {
	Username       string
	Email          string
	FirstName      string
	LastName       string
	HashedPassword string
	Role           string
	PhoneNumber    *string
}

func NewFromCreateRequest(req CreateUserRequest, hashedPassword string) NewUser {
	var phone *string
	if req.PhoneNumber != "" {
		p := req.PhoneNumber
		phone = &p
	}

	return NewUser{
		Username:       req.Username,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		HashedPassword: hashedPassword,
		Role:           req.Role,
		PhoneNumber:    phone,
	}
}

type ChangePasswordRequest struct {
	Password    string `json:"password" binding:"required,min=6,max=15"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=15"`
}

type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type PhoneNumberParam struct {
	PhoneNumber string `uri:"phone_number" binding:"required,max=32"`
}
