// Package consent serves the interactive browser consent pages.
package consent

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wrale/oidc-consent-proxy/internal/consent"
	"github.com/wrale/oidc-consent-proxy/internal/csrf"
	"github.com/wrale/oidc-consent-proxy/internal/metrics"
	"github.com/wrale/oidc-consent-proxy/internal/session"
	"github.com/wrale/oidc-consent-proxy/internal/templates"
)

// Handler processes the interactive consent flow.
type Handler struct {
	processor *consent.Processor
	templates *templates.Templates
	csrf      *csrf.Manager
	log       *zap.Logger
}

// Config contains handler configuration.
type Config struct {
	Processor *consent.Processor
	Templates *templates.Templates
	CSRF      *csrf.Manager
	Logger    *zap.Logger
}

// New creates an interactive consent handler.
func New(cfg Config) *Handler {
	return &Handler{
		processor: cfg.Processor,
		templates: cfg.Templates,
		csrf:      cfg.CSRF,
		log:       cfg.Logger.Named("consent"),
	}
}

// HandleForm shows the consent form for a pending authorization request.
func (h *Handler) HandleForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	returnURL := r.URL.Query().Get("returnUrl")
	if returnURL == "" {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "Missing return URL.")
		return
	}

	vm, err := h.processor.ViewModel(ctx, consent.Selector{ReturnURL: returnURL})
	if err != nil {
		h.log.Error("resolving consent request", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
		return
	}
	if vm == nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "The authorization request is no longer valid.")
		return
	}

	token, err := h.csrf.GenerateToken(ctx)
	if err != nil {
		h.log.Error("generating csrf token", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
		return
	}

	h.render(w, templates.ConsentData{ViewModel: vm, CSRFToken: token})
}

// HandleSubmit processes the consent form submission.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "Unable to process form submission.")
		return
	}
	if err := h.csrf.ValidateToken(ctx, r.PostFormValue("csrf_token")); err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "Please try submitting the form again.")
		return
	}

	in := consent.Input{
		ReturnURL:       r.PostFormValue("return_url"),
		Button:          r.PostFormValue("button"),
		ScopesConsented: r.PostForm["scopes_consented"],
		RememberConsent: r.PostFormValue("remember_consent") == "true",
		Description:     r.PostFormValue("description"),
	}

	result, err := h.processor.Process(ctx, session.Subject(ctx), in)
	if err != nil {
		h.log.Error("processing consent", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
		return
	}

	metrics.ConsentDecision("interactive", result.Outcome.Status.String())

	switch result.Outcome.Status {
	case consent.StatusNotFound:
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "The authorization request is no longer valid.")

	case consent.StatusGranted, consent.StatusDenied:
		if result.NativeClient {
			// Custom-scheme targets get a transitional page so the redirect
			// URI is not handed to the scheme handler mid-navigation.
			if err := h.templates.RenderRedirect(w, templates.RedirectData{RedirectURL: result.RedirectURL}); err != nil {
				http.Error(w, "error rendering page", http.StatusInternalServerError)
			}
			return
		}
		http.Redirect(w, r, result.RedirectURL, http.StatusFound)

	case consent.StatusInvalid:
		token, err := h.csrf.GenerateToken(ctx)
		if err != nil {
			h.log.Error("generating csrf token", zap.Error(err))
			h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
			return
		}
		h.render(w, templates.ConsentData{ViewModel: result.View, CSRFToken: token})
	}
}

func (h *Handler) render(w http.ResponseWriter, data templates.ConsentData) {
	if err := h.templates.RenderConsent(w, data); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, status int, title, message string) {
	w.WriteHeader(status)
	if err := h.templates.RenderError(w, templates.ErrorData{Title: title, Message: message}); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}
