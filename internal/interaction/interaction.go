// Package interaction adapts the external identity-server engine's
// operational state: in-flight authorization requests keyed by return-URL
// token or device user code, decision records written back for the engine to
// consume, and remembered grants.
package interaction

import (
	"time"

	"github.com/wrale/oidc-consent-proxy/internal/consent"
)

// PendingRequest is an in-flight authorization request the engine parked for
// user interaction.
type PendingRequest struct {
	Context   consent.AuthorizationContext `json:"context"`
	CreatedAt time.Time                    `json:"created_at"`
	ExpiresAt time.Time                    `json:"expires_at"`
}

// DecisionRecord is the persisted form of a decided outcome, picked up by
// the engine to finish the protocol exchange.
type DecisionRecord struct {
	Subject     string    `json:"subject"`
	ClientID    string    `json:"client_id"`
	Granted     bool      `json:"granted"`
	Scopes      []string  `json:"scopes,omitempty"`
	Remember    bool      `json:"remember,omitempty"`
	Description string    `json:"description,omitempty"`
	DecidedAt   time.Time `json:"decided_at"`
}

// grantRecord is the stored form of a remembered grant.
type grantRecord struct {
	ClientID    string     `json:"client_id"`
	Scopes      []string   `json:"scopes"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
