package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	stateCookie  = "auth_state"
	returnCookie = "auth_return"
)

// Authenticator establishes local sessions by running an authorization-code
// exchange against the upstream identity server.
type Authenticator struct {
	oauth        *oauth2.Config
	clientSecret []byte
	manager      *Manager
	sessionTTL   time.Duration
}

// NewAuthenticator creates an authenticator. The upstream signs ID tokens
// with the client secret (HS256), which is how the subject is recovered
// after the exchange.
func NewAuthenticator(oauth *oauth2.Config, manager *Manager, sessionTTL time.Duration) *Authenticator {
	return &Authenticator{
		oauth:        oauth,
		clientSecret: []byte(oauth.ClientSecret),
		manager:      manager,
		sessionTTL:   sessionTTL,
	}
}

// HandleLogin starts the code flow against the upstream identity server.
func (a *Authenticator) HandleLogin(w http.ResponseWriter, r *http.Request) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		http.Error(w, "error starting login", http.StatusInternalServerError)
		return
	}
	state := base64.URLEncoding.EncodeToString(raw)

	http.SetCookie(w, &http.Cookie{
		Name: stateCookie, Value: state, Path: "/auth",
		HttpOnly: true, SameSite: http.SameSiteLaxMode, MaxAge: 600,
	})
	if target := r.URL.Query().Get("returnUrl"); target != "" && target[0] == '/' {
		http.SetCookie(w, &http.Cookie{
			Name: returnCookie, Value: target, Path: "/auth",
			HttpOnly: true, SameSite: http.SameSiteLaxMode, MaxAge: 600,
		})
	}

	http.Redirect(w, r, a.oauth.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback finishes the code flow and sets the session cookie.
func (a *Authenticator) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stateCk, err := r.Cookie(stateCookie)
	if err != nil || stateCk.Value == "" || r.URL.Query().Get("state") != stateCk.Value {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		http.Error(w, "code exchange failed", http.StatusBadGateway)
		return
	}

	subject, err := a.subjectFromIDToken(token)
	if err != nil {
		http.Error(w, "invalid id token", http.StatusBadGateway)
		return
	}

	session, err := a.issueSession(subject)
	if err != nil {
		http.Error(w, "error creating session", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name: a.manager.cookieName, Value: session, Path: "/",
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
		MaxAge: int(a.sessionTTL.Seconds()),
	})

	target := "/grants"
	if ck, err := r.Cookie(returnCookie); err == nil && ck.Value != "" && ck.Value[0] == '/' {
		target = ck.Value
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (a *Authenticator) subjectFromIDToken(token *oauth2.Token) (string, error) {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return "", fmt.Errorf("token response has no id_token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return a.clientSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return "", fmt.Errorf("parsing id token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("id token has no subject")
	}
	return claims.Subject, nil
}

func (a *Authenticator) issueSession(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.sessionTTL)),
	})
	return token.SignedString(a.manager.secret)
}
