// Package device serves the device-flow user-code confirmation pages.
package device

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wrale/oidc-consent-proxy/internal/consent"
	"github.com/wrale/oidc-consent-proxy/internal/csrf"
	"github.com/wrale/oidc-consent-proxy/internal/metrics"
	"github.com/wrale/oidc-consent-proxy/internal/session"
	"github.com/wrale/oidc-consent-proxy/internal/templates"
	"github.com/wrale/oidc-consent-proxy/internal/validation"
)

// Handler processes the device-flow confirmation pages.
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

// New creates a device-flow handler.
func New(cfg Config) *Handler {
	return &Handler{
		processor: cfg.Processor,
		templates: cfg.Templates,
		csrf:      cfg.CSRF,
		log:       cfg.Logger.Named("device"),
	}
}

// HandleIndex shows the user-code capture form, or jumps straight to the
// consent confirmation when the code rides in on the query string.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := h.csrf.GenerateToken(ctx)
	if err != nil {
		h.log.Error("generating csrf token", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
		return
	}

	code := r.URL.Query().Get("user_code")
	if code == "" {
		h.renderCapture(w, templates.DeviceData{CSRFToken: token})
		return
	}

	h.confirm(w, r, code, token)
}

// HandleCapture processes the submitted user code and shows the consent
// confirmation for the matching request.
func (h *Handler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "Unable to process form submission.")
		return
	}
	if err := h.csrf.ValidateToken(ctx, r.PostFormValue("csrf_token")); err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "Please try submitting the form again.")
		return
	}

	token, err := h.csrf.GenerateToken(ctx)
	if err != nil {
		h.log.Error("generating csrf token", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
		return
	}

	code := r.PostFormValue("user_code")
	if err := validation.ValidateUserCode(code); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.renderCapture(w, templates.DeviceData{
			CSRFToken: token,
			Error:     "That code does not look right. Check the code shown on your device.",
		})
		return
	}

	h.confirm(w, r, code, token)
}

// HandleConsent processes the device consent form submission.
func (h *Handler) HandleConsent(w http.ResponseWriter, r *http.Request) {
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
		UserCode:        r.PostFormValue("user_code"),
		Button:          r.PostFormValue("button"),
		ScopesConsented: r.PostForm["scopes_consented"],
		RememberConsent: r.PostFormValue("remember_consent") == "true",
		Description:     r.PostFormValue("description"),
	}

	result, err := h.processor.Process(ctx, session.Subject(ctx), in)
	if err != nil {
		h.log.Error("processing device consent", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
		return
	}

	metrics.ConsentDecision("device", result.Outcome.Status.String())

	switch result.Outcome.Status {
	case consent.StatusNotFound:
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "The device request has expired. Start again on your device.")

	case consent.StatusGranted:
		h.renderStatus(w, templates.StatusData{
			Title:   "Device connected",
			Message: "You have authorized the device. You may now return to it.",
		})

	case consent.StatusDenied:
		h.renderStatus(w, templates.StatusData{
			Title:   "Access denied",
			Message: "You have denied the request. The device will not get access.",
		})

	case consent.StatusInvalid:
		token, err := h.csrf.GenerateToken(ctx)
		if err != nil {
			h.log.Error("generating csrf token", zap.Error(err))
			h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
			return
		}
		if err := h.templates.RenderConsent(w, templates.ConsentData{ViewModel: result.View, CSRFToken: token}); err != nil {
			http.Error(w, "error rendering page", http.StatusInternalServerError)
		}
	}
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request, code, token string) {
	vm, err := h.processor.ViewModel(r.Context(), consent.Selector{UserCode: code})
	if err != nil {
		h.log.Error("resolving device request", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Error", "Unable to process the request. Please try again.")
		return
	}
	if vm == nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Request", "The code is invalid or has expired. Start again on your device.")
		return
	}

	if err := h.templates.RenderConsent(w, templates.ConsentData{ViewModel: vm, CSRFToken: token}); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}

func (h *Handler) renderCapture(w http.ResponseWriter, data templates.DeviceData) {
	if err := h.templates.RenderDevice(w, data); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}

func (h *Handler) renderStatus(w http.ResponseWriter, data templates.StatusData) {
	if err := h.templates.RenderStatus(w, data); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, status int, title, message string) {
	w.WriteHeader(status)
	if err := h.templates.RenderError(w, templates.ErrorData{Title: title, Message: message}); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}
