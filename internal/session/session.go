// Package session authenticates the browsing user. The upstream identity
// server sets a signed session cookie after login; this package validates it
// and exposes the subject id to handlers.
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

// Manager validates session cookies and guards routes that need an
// authenticated subject.
type Manager struct {
	secret     []byte
	cookieName string
	loginURL   string
}

// NewManager creates a session manager. The secret is shared with the
// upstream identity server; loginURL is where unauthenticated users are sent.
func NewManager(secret []byte, cookieName, loginURL string) *Manager {
	return &Manager{
		secret:     secret,
		cookieName: cookieName,
		loginURL:   loginURL,
	}
}

// Subject returns the authenticated subject id, or "" when the request did
// not pass through RequireAuth.
func Subject(ctx context.Context) string {
	subject, _ := ctx.Value(contextKey{}).(string)
	return subject
}

// WithSubject returns a context carrying the given subject id. Intended for
// handler tests.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextKey{}, subject)
}

// RequireAuth validates the session cookie and stores the subject in the
// request context. Requests without a valid session are redirected to the
// login page with the original URL as the return target.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.cookieName)
		if err != nil {
			m.redirectToLogin(w, r)
			return
		}

		subject, err := m.subjectFromToken(cookie.Value)
		if err != nil {
			m.redirectToLogin(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}

func (m *Manager) subjectFromToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return "", fmt.Errorf("parsing session token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("session token has no subject")
	}
	return claims.Subject, nil
}

func (m *Manager) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := m.loginURL
	if u, err := url.Parse(m.loginURL); err == nil {
		q := u.Query()
		q.Set("returnUrl", r.URL.RequestURI())
		u.RawQuery = q.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusFound)
}
