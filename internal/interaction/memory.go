package interaction

import (
	"context"
	"sync"
	"time"

	"github.com/wrale/oidc-consent-proxy/internal/consent"
	"github.com/wrale/oidc-consent-proxy/internal/grants"
	"github.com/wrale/oidc-consent-proxy/internal/validation"
)

// MemoryEngine is an in-memory interaction engine for development and tests.
type MemoryEngine struct {
	mu        sync.Mutex
	pending   map[string]PendingRequest
	decisions map[string]DecisionRecord
	grants    map[string]map[string]grants.Grant // subject -> client id -> grant
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		pending:   make(map[string]PendingRequest),
		decisions: make(map[string]DecisionRecord),
		grants:    make(map[string]map[string]grants.Grant),
	}
}

// SaveConsentRequest parks an interactive request under its return-URL
// token.
func (e *MemoryEngine) SaveConsentRequest(_ context.Context, returnURL string, authCtx *consent.AuthorizationContext, ttl time.Duration) error {
	e.savePending(consentPrefix+returnURL, authCtx, ttl)
	return nil
}

// SaveDeviceRequest parks a device request under its user code.
func (e *MemoryEngine) SaveDeviceRequest(_ context.Context, userCode string, authCtx *consent.AuthorizationContext, ttl time.Duration) error {
	e.savePending(userCodePrefix+validation.NormalizeCode(userCode), authCtx, ttl)
	return nil
}

func (e *MemoryEngine) savePending(key string, authCtx *consent.AuthorizationContext, ttl time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	e.pending[key] = PendingRequest{
		Context:   *authCtx,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (e *MemoryEngine) ResolveConsent(_ context.Context, returnURL string) (*consent.AuthorizationContext, error) {
	return e.resolve(consentPrefix + returnURL), nil
}

func (e *MemoryEngine) ResolveDevice(_ context.Context, userCode string) (*consent.AuthorizationContext, error) {
	return e.resolve(userCodePrefix + validation.NormalizeCode(userCode)), nil
}

func (e *MemoryEngine) resolve(key string) *consent.AuthorizationContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	pending, ok := e.pending[key]
	if !ok || time.Now().After(pending.ExpiresAt) {
		return nil
	}
	authCtx := pending.Context
	return &authCtx
}

func (e *MemoryEngine) SaveDecision(_ context.Context, subject string, sel consent.Selector, outcome consent.Outcome) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := pendingKey(sel)
	pending, ok := e.pending[key]
	if !ok {
		return ErrRequestGone
	}
	delete(e.pending, key)

	now := time.Now()
	granted := outcome.Status == consent.StatusGranted
	e.decisions[selectorToken(sel)] = DecisionRecord{
		Subject:     subject,
		ClientID:    pending.Context.Client.ID,
		Granted:     granted,
		Scopes:      outcome.Scopes,
		Remember:    outcome.Remember,
		Description: outcome.Description,
		DecidedAt:   now,
	}

	if granted && (outcome.Remember || sel.IsDevice()) {
		byClient, ok := e.grants[subject]
		if !ok {
			byClient = make(map[string]grants.Grant)
			e.grants[subject] = byClient
		}
		byClient[pending.Context.Client.ID] = grants.Grant{
			ClientID:    pending.Context.Client.ID,
			Scopes:      outcome.Scopes,
			Description: outcome.Description,
			CreatedAt:   now,
		}
	}

	return nil
}

// Decision reads back a stored decision record, or nil when absent.
func (e *MemoryEngine) Decision(sel consent.Selector) *DecisionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	record, ok := e.decisions[selectorToken(sel)]
	if !ok {
		return nil
	}
	return &record
}

func (e *MemoryEngine) ListGrants(_ context.Context, subject string) ([]grants.Grant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := make([]grants.Grant, 0, len(e.grants[subject]))
	for _, grant := range e.grants[subject] {
		list = append(list, grant)
	}
	return list, nil
}

func (e *MemoryEngine) DeleteGrant(_ context.Context, subject, clientID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.grants[subject], clientID)
	return nil
}

// CheckHealth always succeeds for the in-memory engine.
func (e *MemoryEngine) CheckHealth(context.Context) error { return nil }
