package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var (
	ErrHasherBusy = errors.New("password hasher: no worker available")
	// ErrPasswordTooLong: bcrypt only reads the first 72 bytes, which is
	// fewer than 72 characters once the input leaves ASCII.
	ErrPasswordTooLong = fmt.Errorf("password exceeds %d bytes", MaxPasswordBytes)
)

const MaxPasswordBytes = 72

// dummyPassword backs the comparison spent on logins for unknown users.
const dummyPassword = "todohub-dummy-password"

// HashPassword hashes a plain text password with bcrypt.
// bcrypt embeds a fresh random salt, so equal inputs never produce equal hashes.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword reports whether plain matches hash. A malformed hash is a mismatch.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Observer receives hashing latencies; observability.Prom implements it.
type Observer interface {
	ObservePasswordOp(op string, d time.Duration)
}

// Hasher runs bcrypt work on a bounded number of slots so a burst of logins
// cannot starve unrelated requests of CPU.
type Hasher struct {
	cost      int
	slots     *semaphore.Weighted
	dummyHash string
	observer  Observer
}

func NewHasher(cost, workers int, observer Observer) (*Hasher, error) {
	if workers <= 0 {
		workers = 1
	}

	dummy, err := HashPassword(dummyPassword, cost)
	if err != nil {
		return nil, fmt.Errorf("init dummy hash: %w", err)
	}

	return &Hasher{
		cost:      cost,
		slots:     semaphore.NewWeighted(int64(workers)),
		dummyHash: dummy,
		observer:  observer,
	}, nil
}

func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	var hash string

	err := h.run(ctx, "hash", func() error {
		var err error
		hash, err = HashPassword(plain, h.cost)
		return err
	})
	if err != nil {
		return "", err
	}

	return hash, nil
}

// Verify never fails on a malformed hash; the error is only set when no
// worker slot could be obtained before ctx ended.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) (bool, error) {
	var ok bool

	err := h.run(ctx, "verify", func() error {
		ok = CheckPassword(hash, plain)
		return nil
	})
	if err != nil {
		return false, err
	}

	return ok, nil
}

// VerifyDummy burns one comparison so unknown usernames cost the same as wrong passwords.
func (h *Hasher) VerifyDummy(ctx context.Context, plain string) error {
	_, err := h.Verify(ctx, plain, h.dummyHash)
	return err
}

func (h *Hasher) run(ctx context.Context, op string, fn func() error) error {
	ctx, span := otel.Tracer("todohub/security").Start(ctx, "password."+op)
	defer span.End()

	if err := h.slots.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrHasherBusy, err)
	}
	defer h.slots.Release(1)

	start := time.Now()
	err := fn()

	if h.observer != nil {
		h.observer.ObservePasswordOp(op, time.Since(start))
	}

	return err
}
