// Package csrf implements anti-forgery tokens for the consent, device and
// grants forms. Tokens are HMAC-signed and single-use: validating a token
// consumes it.
package csrf

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidToken indicates a missing, malformed, or unknown token.
	ErrInvalidToken = errors.New("invalid csrf token")
)

// Store persists issued tokens until they are consumed or expire.
type Store interface {
	// SaveToken stores an issued token with an expiry.
	SaveToken(ctx context.Context, token string, expiresIn time.Duration) error

	// ConsumeToken atomically checks and removes a token. Returns
	// ErrInvalidToken when the token is unknown or already used.
	ConsumeToken(ctx context.Context, token string) error

	// CheckHealth verifies the store is operational.
	CheckHealth(ctx context.Context) error
}

// Manager issues and validates anti-forgery tokens.
type Manager struct {
	store     Store
	secret    []byte
	expiresIn time.Duration
}

// NewManager creates a token manager. The secret must be shared across
// replicas so a token issued by one instance validates on another.
func NewManager(store Store, secret []byte, expiresIn time.Duration) *Manager {
	return &Manager{
		store:     store,
		secret:    secret,
		expiresIn: expiresIn,
	}
}

// GenerateToken issues and stores a fresh signed token.
func (m *Manager) GenerateToken(ctx context.Context) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}

	body := base64.URLEncoding.EncodeToString(raw)
	token := body + "." + base64.URLEncoding.EncodeToString(m.sign(body))

	if err := m.store.SaveToken(ctx, token, m.expiresIn); err != nil {
		return "", fmt.Errorf("saving token: %w", err)
	}

	return token, nil
}

// ValidateToken checks the signature and consumes the token. A second
// validation of the same token fails.
func (m *Manager) ValidateToken(ctx context.Context, token string) error {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" {
		return ErrInvalidToken
	}

	actual, err := base64.URLEncoding.DecodeString(sig)
	if err != nil {
		return ErrInvalidToken
	}
	if !hmac.Equal(m.sign(body), actual) {
		return ErrInvalidToken
	}

	return m.store.ConsumeToken(ctx, token)
}

// CheckHealth verifies the backing store is reachable.
func (m *Manager) CheckHealth(ctx context.Context) error {
	if err := m.store.CheckHealth(ctx); err != nil {
		return fmt.Errorf("csrf store health check failed: %w", err)
	}
	return nil
}

func (m *Manager) sign(body string) []byte {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(body))
	return h.Sum(nil)
}
