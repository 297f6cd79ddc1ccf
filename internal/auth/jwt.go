package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: sub, id, role, exp (and iat).
// UserID is a pointer so an absent "id" claim is told apart from id 0.
type Claims struct {
	UserID *int64 `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

type Option func(*Manager)

// WithClock swaps the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(secret string, accessTTL time.Duration, opts ...Option) (*Manager, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if accessTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	m := &Manager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// IssueAccessToken issues a token with the configured access ttl.
func (m *Manager) IssueAccessToken(username string, userID int64, role string) (string, error) {
	return m.Issue(username, userID, role, m.accessTTL)
}

func (m *Manager) Issue(username string, userID int64, role string, ttl time.Duration) (string, error) {
	now := m.now().UTC().Truncate(time.Second)
	id := userID

	claims := Claims{
		UserID: &id,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// Validate returns the identity carried by a token. Every failure, whatever
// its cause, comes back as ErrInvalidCredential; Reason exposes the cause
// for server-side logging only.
func (m *Manager) Validate(tokenStr string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, invalid(err)
	}

	if !token.Valid {
		return Identity{}, invalid(errors.New("token not valid"))
	}

	if claims.Subject == "" || claims.UserID == nil {
		return Identity{}, invalid(errors.New("required claims missing"))
	}

	return Identity{
		Username: claims.Subject,
		UserID:   *claims.UserID,
		Role:     claims.Role,
	}, nil
}
