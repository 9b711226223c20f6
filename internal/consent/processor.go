package consent

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wrale/oidc-consent-proxy/internal/audit"
)

// Engine is the slice of the interaction engine the processor needs: request
// resolution by selector and persistence of a decided outcome. A nil context
// with a nil error means the selector does not resolve.
type Engine interface {
	ResolveConsent(ctx context.Context, returnURL string) (*AuthorizationContext, error)
	ResolveDevice(ctx context.Context, userCode string) (*AuthorizationContext, error)
	SaveDecision(ctx context.Context, subject string, sel Selector, outcome Outcome) error
}

// Processor turns a user's submitted choice into a decided, persisted
// consent outcome. It holds no per-request state and is safe for concurrent
// use.
type Processor struct {
	engine Engine
	events audit.Sink
	opts   Options
}

// NewProcessor creates a consent processor.
func NewProcessor(engine Engine, events audit.Sink, opts Options) *Processor {
	return &Processor{
		engine: engine,
		events: events,
		opts:   opts,
	}
}

// Decide interprets a submission against a resolved request. It is pure: the
// returned event describes what should be emitted, but nothing is emitted
// here. The raw requested scope set goes on the event in full, regardless of
// what was checked.
func Decide(authCtx *AuthorizationContext, subject string, in Input, opts Options) (Outcome, *audit.Event) {
	switch in.Button {
	case "no":
		event := audit.NewEvent(audit.ConsentDenied, subject, authCtx.Client.ID)
		event.RequestedScopes = authCtx.Resources.RawScopeValues
		return Outcome{Status: StatusDenied}, &event

	case "yes":
		if len(in.ScopesConsented) == 0 {
			return Outcome{Status: StatusInvalid, ValidationError: opts.MustChooseOneError}, nil
		}

		scopes := in.ScopesConsented
		if !opts.EnableOfflineAccess {
			scopes = withoutScope(scopes, OfflineAccessScope)
		}

		outcome := Outcome{
			Status:      StatusGranted,
			Scopes:      scopes,
			Remember:    in.RememberConsent,
			Description: in.Description,
		}

		event := audit.NewEvent(audit.ConsentGranted, subject, authCtx.Client.ID)
		event.RequestedScopes = authCtx.Resources.RawScopeValues
		event.GrantedScopes = outcome.Scopes
		event.Remember = outcome.Remember
		return outcome, &event

	default:
		return Outcome{Status: StatusInvalid, ValidationError: opts.InvalidSelectionError}, nil
	}
}

// Process resolves the in-flight request, decides the outcome, persists a
// grant or denial through the engine, and emits the matching audit event.
// Every user-facing failure is expressed in the result; only infrastructure
// failures return a non-nil error.
func (p *Processor) Process(ctx context.Context, subject string, in Input) (*Result, error) {
	sel := in.Selector()

	authCtx, err := p.resolve(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("resolving authorization context: %w", err)
	}
	if authCtx == nil {
		return &Result{Outcome: Outcome{Status: StatusNotFound}}, nil
	}

	outcome, event := Decide(authCtx, subject, in, p.opts)

	if outcome.Decided() {
		if err := p.engine.SaveDecision(ctx, subject, sel, outcome); err != nil {
			return nil, fmt.Errorf("persisting consent decision: %w", err)
		}
		if event != nil {
			p.events.Emit(ctx, *event)
		}

		result := &Result{Outcome: outcome}
		if !sel.IsDevice() {
			result.RedirectURL = in.ReturnURL
			result.NativeClient = isNativeClient(authCtx.RedirectURI)
		}
		return result, nil
	}

	vm := BuildViewModel(authCtx, sel, &in, p.opts)
	vm.Error = outcome.ValidationError

	return &Result{Outcome: outcome, View: vm}, nil
}

// ViewModel resolves the request for a fresh form render. Returns nil when
// the selector does not resolve.
func (p *Processor) ViewModel(ctx context.Context, sel Selector) (*ViewModel, error) {
	authCtx, err := p.resolve(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("resolving authorization context: %w", err)
	}
	if authCtx == nil {
		return nil, nil
	}
	return BuildViewModel(authCtx, sel, nil, p.opts), nil
}

func (p *Processor) resolve(ctx context.Context, sel Selector) (*AuthorizationContext, error) {
	if sel.IsDevice() {
		return p.engine.ResolveDevice(ctx, sel.UserCode)
	}
	return p.engine.ResolveConsent(ctx, sel.ReturnURL)
}

// isNativeClient reports whether the redirect target uses a custom URI
// scheme rather than a standard web redirect.
func isNativeClient(redirectURI string) bool {
	if redirectURI == "" {
		return false
	}
	u, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme != "" && scheme != "http" && scheme != "https"
}

func withoutScope(scopes []string, drop string) []string {
	filtered := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s != drop {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
