package harness

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCredentials is returned when a rotator is built without any usable secret.
var ErrNoCredentials = errors.New("no credentials configured")

// Credential is one API secret bound to a provider pool slot.
type Credential struct {
	Provider string
	Slot     int
	Secret   string
}

// String returns a redacted form safe for logs, e.g. "cerebras#0(csk-…9f3a)".
func (c Credential) String() string {
	return fmt.Sprintf("%s#%d(%s)", c.Provider, c.Slot, redact(c.Secret))
}

// GoString keeps %#v from printing the secret.
func (c Credential) GoString() string {
	return c.String()
}

func redact(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "…" + secret[len(secret)-4:]
}

// CredentialRotator owns a provider's credential pool and its current index.
// It is not safe for concurrent use; one Client owns one rotator.
type CredentialRotator struct {
	provider string
	pool     []Credential
	index    int
	onRotate func(Credential)
}

// NewCredentialRotator builds a pool from secrets, skipping blank entries.
// onRotate, when non-nil, is called with the new credential after every rotation.
func NewCredentialRotator(provider string, secrets []string, onRotate func(Credential)) (*CredentialRotator, error) {
	pool := make([]Credential, 0, len(secrets))
	for _, secret := range secrets {
		secret = strings.TrimSpace(secret)
		if secret == "" {
			continue
		}
		pool = append(pool, Credential{Provider: provider, Slot: len(pool), Secret: secret})
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%s: %w", provider, ErrNoCredentials)
	}

	return &CredentialRotator{provider: provider, pool: pool, onRotate: onRotate}, nil
}

// Current returns the active credential.
func (r *CredentialRotator) Current() Credential {
	return r.pool[r.index]
}

// Rotate advances to the next credential, wrapping after the last one. For a pool
// of one it does nothing and reports false.
func (r *CredentialRotator) Rotate() (Credential, bool) {
	if len(r.pool) <= 1 {
		return r.Current(), false
	}

	r.index = (r.index + 1) % len(r.pool)
	current := r.Current()
	if r.onRotate != nil {
		r.onRotate(current)
	}
	return current, true
}

// Size returns the pool size.
func (r *CredentialRotator) Size() int {
	return len(r.pool)
}

// Index returns the offset of the active credential.
func (r *CredentialRotator) Index() int {
	return r.index
}
