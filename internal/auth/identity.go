package auth

import "errors"

var (
	// ErrMissingCredential: no bearer token was presented.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential covers bad signatures, expiry, malformed tokens and wrong passwords.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrNotOwned is surfaced to clients as not found.
	ErrNotOwned = errors.New("resource not owned by caller")
)

// Identity is the caller resolved from a validated token. It lives for one request.
type Identity struct {
	Username string `json:"username"`
	UserID   int64  `json:"id"`
	Role     string `json:"role"`
}

// CredentialError keeps the underlying cause of an auth failure for logs
// while presenting the same message for every cause.
type CredentialError struct {
	kind  error
	cause error
}

func invalid(cause error) error {
	return &CredentialError{kind: ErrInvalidCredential, cause: cause}
}

func (e *CredentialError) Error() string {
	return e.kind.Error()
}

func (e *CredentialError) Is(target error) bool {
	return target == e.kind
}

// Reason returns the internal cause of a credential error, for server-side logs.
func Reason(err error) string {
	var ce *CredentialError
	if errors.As(err, &ce) && ce.cause != nil {
		return ce.cause.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
