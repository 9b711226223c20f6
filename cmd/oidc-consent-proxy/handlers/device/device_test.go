package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wrale/oidc-consent-proxy/internal/audit"
	"github.com/wrale/oidc-consent-proxy/internal/consent"
	"github.com/wrale/oidc-consent-proxy/internal/csrf"
	"github.com/wrale/oidc-consent-proxy/internal/interaction"
	"github.com/wrale/oidc-consent-proxy/internal/session"
	"github.com/wrale/oidc-consent-proxy/internal/templates"
)

const testUserCode = "WBCD-GHJK"

type testHarness struct {
	handler *Handler
	engine  *interaction.MemoryEngine
	csrf    *csrf.Manager
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	tmpl, err := templates.LoadTemplates()
	require.NoError(t, err)

	engine := interaction.NewMemoryEngine()
	csrfManager := csrf.NewManager(csrf.NewMemoryStore(), []byte("test-secret"), time.Minute)
	processor := consent.NewProcessor(engine, audit.NopSink{}, consent.DefaultOptions())

	handler := New(Config{
		Processor: processor,
		Templates: tmpl,
		CSRF:      csrfManager,
		Logger:    zaptest.NewLogger(t),
	})

	return &testHarness{handler: handler, engine: engine, csrf: csrfManager}
}

func (h *testHarness) savePending(t *testing.T) {
	t.Helper()
	authCtx := &consent.AuthorizationContext{
		Client: consent.Client{ID: "tv-app", Name: "TV App"},
		Resources: consent.Resources{
			IdentityScopes: []consent.IdentityScope{{Name: "openid", Required: true}},
			RawScopeValues: []string{"openid"},
		},
	}
	require.NoError(t, h.engine.SaveDeviceRequest(context.Background(), testUserCode, authCtx, time.Minute))
}

func (h *testHarness) token(t *testing.T) string {
	t.Helper()
	token, err := h.csrf.GenerateToken(context.Background())
	require.NoError(t, err)
	return token
}

func postForm(path string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r.WithContext(session.WithSubject(r.Context(), "alice"))
}

func TestHandleIndexShowsCaptureForm(t *testing.T) {
	h := newHarness(t)

	r := httptest.NewRequest(http.MethodGet, "/device", nil)
	w := httptest.NewRecorder()
	h.handler.HandleIndex(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Enter the code shown on your device.")
	assert.Contains(t, body, `name="user_code"`)
}

func TestHandleIndexWithCodeShowsConsent(t *testing.T) {
	h := newHarness(t)
	h.savePending(t)

	r := httptest.NewRequest(http.MethodGet, "/device?user_code="+testUserCode, nil)
	w := httptest.NewRecorder()
	h.handler.HandleIndex(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "TV App")
	assert.Contains(t, body, `action="/device/consent"`)
}

func TestHandleCapture(t *testing.T) {
	h := newHarness(t)
	h.savePending(t)

	t.Run("valid code shows consent", func(t *testing.T) {
		form := url.Values{
			"csrf_token": {h.token(t)},
			"user_code":  {testUserCode},
		}
		w := httptest.NewRecorder()
		h.handler.HandleCapture(w, postForm("/device", form))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "TV App")
	})

	t.Run("malformed code re-renders capture", func(t *testing.T) {
		form := url.Values{
			"csrf_token": {h.token(t)},
			"user_code":  {"1234-5678"},
		}
		w := httptest.NewRecorder()
		h.handler.HandleCapture(w, postForm("/device", form))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "That code does not look right")
	})

	t.Run("unknown code shows error page", func(t *testing.T) {
		form := url.Values{
			"csrf_token": {h.token(t)},
			"user_code":  {"ZZZZ-ZZZZ"},
		}
		w := httptest.NewRecorder()
		h.handler.HandleCapture(w, postForm("/device", form))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or has expired")
	})

	t.Run("missing csrf token rejected", func(t *testing.T) {
		form := url.Values{"user_code": {testUserCode}}
		w := httptest.NewRecorder()
		h.handler.HandleCapture(w, postForm("/device", form))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleConsentGrant(t *testing.T) {
	h := newHarness(t)
	h.savePending(t)

	form := url.Values{
		"csrf_token":       {h.token(t)},
		"user_code":        {testUserCode},
		"button":           {"yes"},
		"scopes_consented": {"openid"},
		"description":      {"kitchen tv"},
	}
	w := httptest.NewRecorder()
	h.handler.HandleConsent(w, postForm("/device/consent", form))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Device connected")

	record := h.engine.Decision(consent.Selector{UserCode: testUserCode})
	require.NotNil(t, record)
	assert.True(t, record.Granted)
	assert.Equal(t, "alice", record.Subject)
	assert.Equal(t, "kitchen tv", record.Description)

	// Device grants are always remembered.
	list, err := h.engine.ListGrants(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "tv-app", list[0].ClientID)
}

func TestHandleConsentDenial(t *testing.T) {
	h := newHarness(t)
	h.savePending(t)

	form := url.Values{
		"csrf_token": {h.token(t)},
		"user_code":  {testUserCode},
		"button":     {"no"},
	}
	w := httptest.NewRecorder()
	h.handler.HandleConsent(w, postForm("/device/consent", form))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied")

	list, err := h.engine.ListGrants(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHandleConsentNothingCheckedRedisplays(t *testing.T) {
	h := newHarness(t)
	h.savePending(t)

	form := url.Values{
		"csrf_token": {h.token(t)},
		"user_code":  {testUserCode},
		"button":     {"yes"},
	}
	w := httptest.NewRecorder()
	h.handler.HandleConsent(w, postForm("/device/consent", form))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "You must pick at least one permission")
	assert.Contains(t, body, `action="/device/consent"`)
}

func TestHandleConsentExpiredRequest(t *testing.T) {
	h := newHarness(t)

	form := url.Values{
		"csrf_token":       {h.token(t)},
		"user_code":        {testUserCode},
		"button":           {"yes"},
		"scopes_consented": {"openid"},
	}
	w := httptest.NewRecorder()
	h.handler.HandleConsent(w, postForm("/device/consent", form))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}
