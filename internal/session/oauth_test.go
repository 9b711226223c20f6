package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecret = "upstream-client-secret"

// fakeIdP serves the upstream token endpoint for the code exchange.
func fakeIdP(t *testing.T, subject string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/connect/token", r.URL.Path)

		idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte(clientSecret))
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	}))
}

func testAuthenticator(idpURL string) (*Authenticator, *Manager) {
	manager := NewManager([]byte("session-secret"), testCookie, "/auth/login")
	oauthCfg := &oauth2.Config{
		ClientID:     "consent-ui",
		ClientSecret: clientSecret,
		RedirectURL:  "http://consent.local/auth/callback",
		Scopes:       []string{"openid"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  idpURL + "/connect/authorize",
			TokenURL: idpURL + "/connect/token",
		},
	}
	return NewAuthenticator(oauthCfg, manager, time.Hour), manager
}

func TestHandleLogin(t *testing.T) {
	a, _ := testAuthenticator("http://idp.local")

	r := httptest.NewRequest(http.MethodGet, "/auth/login?returnUrl=%2Fconsent%3FreturnUrl%3D%2Fcb", nil)
	w := httptest.NewRecorder()
	a.HandleLogin(w, r)

	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/connect/authorize", loc.Path)
	assert.Equal(t, "consent-ui", loc.Query().Get("client_id"))
	assert.Equal(t, "code", loc.Query().Get("response_type"))
	assert.NotEmpty(t, loc.Query().Get("state"))

	cookies := w.Result().Cookies()
	var gotState, gotReturn string
	for _, c := range cookies {
		switch c.Name {
		case stateCookie:
			gotState = c.Value
		case returnCookie:
			gotReturn = c.Value
		}
	}
	assert.Equal(t, loc.Query().Get("state"), gotState)
	assert.Equal(t, "/consent?returnUrl=/cb", gotReturn)
}

func TestHandleLoginIgnoresAbsoluteReturnURL(t *testing.T) {
	a, _ := testAuthenticator("http://idp.local")

	r := httptest.NewRequest(http.MethodGet, "/auth/login?returnUrl=https%3A%2F%2Fevil.example.com", nil)
	w := httptest.NewRecorder()
	a.HandleLogin(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, returnCookie, c.Name)
	}
}

func TestHandleCallback(t *testing.T) {
	idp := fakeIdP(t, "alice")
	defer idp.Close()

	a, manager := testAuthenticator(idp.URL)

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=st-1", nil)
	r.AddCookie(&http.Cookie{Name: stateCookie, Value: "st-1"})
	r.AddCookie(&http.Cookie{Name: returnCookie, Value: "/consent?returnUrl=/cb"})
	w := httptest.NewRecorder()
	a.HandleCallback(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/consent?returnUrl=/cb", w.Header().Get("Location"))

	var sessionValue string
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			sessionValue = c.Value
		}
	}
	require.NotEmpty(t, sessionValue, "session cookie not set")

	subject, err := manager.subjectFromToken(sessionValue)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestHandleCallbackDefaultsToGrants(t *testing.T) {
	idp := fakeIdP(t, "alice")
	defer idp.Close()

	a, _ := testAuthenticator(idp.URL)

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=st-1", nil)
	r.AddCookie(&http.Cookie{Name: stateCookie, Value: "st-1"})
	w := httptest.NewRecorder()
	a.HandleCallback(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/grants", w.Header().Get("Location"))
}

func TestHandleCallbackRejectsBadState(t *testing.T) {
	a, _ := testAuthenticator("http://idp.local")

	tests := []struct {
		name   string
		target string
		cookie *http.Cookie
	}{
		{
			name:   "no state cookie",
			target: "/auth/callback?code=abc&state=st-1",
		},
		{
			name:   "state mismatch",
			target: "/auth/callback?code=abc&state=st-2",
			cookie: &http.Cookie{Name: stateCookie, Value: "st-1"},
		},
		{
			name:   "missing code",
			target: "/auth/callback?state=st-1",
			cookie: &http.Cookie{Name: stateCookie, Value: "st-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			a.HandleCallback(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleCallbackRejectsForeignIDToken(t *testing.T) {
	// The upstream must sign the id_token with the shared client secret.
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: "mallory",
		}).SignedString([]byte("wrong-secret"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"id_token":     idToken,
		})
	}))
	defer idp.Close()

	a, _ := testAuthenticator(idp.URL)

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=st-1", nil)
	r.AddCookie(&http.Cookie{Name: stateCookie, Value: "st-1"})
	w := httptest.NewRecorder()
	a.HandleCallback(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
