// Package grants serves the grant inventory page and revocation.
package grants

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wrale/oidc-consent-proxy/internal/csrf"
	"github.com/wrale/oidc-consent-proxy/internal/grants"
	"github.com/wrale/oidc-consent-proxy/internal/metrics"
	"github.com/wrale/oidc-consent-proxy/internal/session"
	"github.com/wrale/oidc-consent-proxy/internal/templates"
)

// Handler serves the grant inventory pages.
type Handler struct {
	service   *grants.Service
	templates *templates.Templates
	csrf      *csrf.Manager
	log       *zap.Logger
}

// Config contains handler configuration.
type Config struct {
	Service   *grants.Service
	Templates *templates.Templates
	CSRF      *csrf.Manager
	Logger    *zap.Logger
}

// New creates a grants handler.
func New(cfg Config) *Handler {
	return &Handler{
		service:   cfg.Service,
		templates: cfg.Templates,
		csrf:      cfg.CSRF,
		log:       cfg.Logger.Named("grants"),
	}
}

// HandleIndex lists the current user's grants.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.List(ctx, session.Subject(ctx))
	if err != nil {
		h.log.Error("listing grants", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to load your grants. Please try again.")
		return
	}

	token, err := h.csrf.GenerateToken(ctx)
	if err != nil {
		h.log.Error("generating csrf token", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to load your grants. Please try again.")
		return
	}

	if err := h.templates.RenderGrants(w, templates.GrantsData{Grants: list, CSRFToken: token}); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}

// HandleRevoke revokes one grant and returns to the inventory.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "Unable to process form submission.")
		return
	}
	if err := h.csrf.ValidateToken(ctx, r.PostFormValue("csrf_token")); err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "Please try submitting the form again.")
		return
	}

	clientID := r.PostFormValue("client_id")
	if clientID == "" {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "Missing client id.")
		return
	}

	if err := h.service.Revoke(ctx, session.Subject(ctx), clientID); err != nil {
		h.log.Error("revoking grant", zap.Error(err), zap.String("client_id", clientID))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to revoke the grant. Please try again.")
		return
	}

	metrics.GrantRevoked()

	http.Redirect(w, r, "/grants", http.StatusFound)
}

func (h *Handler) renderError(w http.ResponseWriter, status int, title, message string) {
	w.WriteHeader(status)
	if err := h.templates.RenderError(w, templates.ErrorData{Title: title, Message: message}); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}
