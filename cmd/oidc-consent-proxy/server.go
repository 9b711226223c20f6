package main

import (
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	consenthandler "github.com/wrale/oidc-consent-proxy/cmd/oidc-consent-proxy/handlers/consent"
	devicehandler "github.com/wrale/oidc-consent-proxy/cmd/oidc-consent-proxy/handlers/device"
	grantshandler "github.com/wrale/oidc-consent-proxy/cmd/oidc-consent-proxy/handlers/grants"
	healthhandler "github.com/wrale/oidc-consent-proxy/cmd/oidc-consent-proxy/handlers/health"
	"github.com/wrale/oidc-consent-proxy/internal/consent"
	"github.com/wrale/oidc-consent-proxy/internal/csrf"
	"github.com/wrale/oidc-consent-proxy/internal/grants"
	"github.com/wrale/oidc-consent-proxy/internal/metrics"
	"github.com/wrale/oidc-consent-proxy/internal/session"
	"github.com/wrale/oidc-consent-proxy/internal/templates"
)

type serverDeps struct {
	processor *consent.Processor
	grants    *grants.Service
	csrf      *csrf.Manager
	sessions  *session.Manager
	health    map[string]healthhandler.Checker
	log       *zap.Logger
}

type server struct {
	cfg    Config
	router *chi.Mux
}

func newServer(cfg Config, deps serverDeps) (*server, error) {
	tmpls, err := templates.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	oauth := &oauth2.Config{
		ClientID:     cfg.IdPClientID,
		ClientSecret: cfg.IdPClientSecret,
		RedirectURL:  cfg.BaseURL + "/auth/callback",
		Scopes:       []string{"openid"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.IdPAuthURL,
			TokenURL: cfg.IdPTokenURL,
		},
	}
	authenticator := session.NewAuthenticator(oauth, deps.sessions, cfg.SessionTTL)

	consentH := consenthandler.New(consenthandler.Config{
		Processor: deps.processor,
		Templates: tmpls,
		CSRF:      deps.csrf,
		Logger:    deps.log,
	})
	deviceH := devicehandler.New(devicehandler.Config{
		Processor: deps.processor,
		Templates: tmpls,
		CSRF:      deps.csrf,
		Logger:    deps.log,
	})
	grantsH := grantshandler.New(grantshandler.Config{
		Service:   deps.grants,
		Templates: tmpls,
		CSRF:      deps.csrf,
		Logger:    deps.log,
	})

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(30 * time.Second))

	router.Method("GET", "/health", healthhandler.New(Version, deps.health))
	router.Handle("/metrics", metrics.Register(nil))

	router.Get("/auth/login", authenticator.HandleLogin)
	router.Get("/auth/callback", authenticator.HandleCallback)

	router.Group(func(r chi.Router) {
		r.Use(deps.sessions.RequireAuth)

		r.Get("/consent", consentH.HandleForm)
		r.Post("/consent", consentH.HandleSubmit)

		r.Get("/device", deviceH.HandleIndex)
		r.Post("/device", deviceH.HandleCapture)
		r.Post("/device/consent", deviceH.HandleConsent)

		r.Get("/grants", grantsH.HandleIndex)
		r.Post("/grants/revoke", grantsH.HandleRevoke)
	})

	return &server{cfg: cfg, router: router}, nil
}
