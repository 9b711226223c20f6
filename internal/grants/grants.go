// Package grants aggregates a user's remembered consents into a
// display-ready inventory and handles revocation.
package grants

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wrale/oidc-consent-proxy/internal/audit"
	"github.com/wrale/oidc-consent-proxy/internal/directory"
)

// Grant is a persisted consent record as the interaction engine stores it.
type Grant struct {
	ClientID    string
	Scopes      []string
	Description string
	CreatedAt   time.Time
	ExpiresAt   *time.Time
}

// Engine is the slice of the interaction engine the inventory needs.
type Engine interface {
	ListGrants(ctx context.Context, subject string) ([]Grant, error)
	DeleteGrant(ctx context.Context, subject, clientID string) error
}

// Summary is one row of the grant inventory, joined with client and resource
// display metadata. Built per request, never persisted.
type Summary struct {
	ClientID      string
	ClientName    string
	ClientLogoURL string
	ClientURL     string
	Description   string
	CreatedAt     time.Time
	ExpiresAt     *time.Time

	IdentityScopeNames []string
	APIScopeNames      []string
}

// Service implements the grant inventory and revocation operations.
type Service struct {
	engine    Engine
	clients   directory.ClientStore
	resources directory.ResourceStore
	events    audit.Sink
	log       *zap.Logger
}

// NewService creates a grant inventory service.
func NewService(engine Engine, clients directory.ClientStore, resources directory.ResourceStore, events audit.Sink, log *zap.Logger) *Service {
	return &Service{
		engine:    engine,
		clients:   clients,
		resources: resources,
		events:    events,
		log:       log.Named("grants"),
	}
}

// List returns the subject's live grants decorated with display metadata.
// Grants whose client no longer exists in the directory are dropped.
func (s *Service) List(ctx context.Context, subject string) ([]Summary, error) {
	grants, err := s.engine.ListGrants(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("listing grants: %w", err)
	}

	summaries := make([]Summary, 0, len(grants))
	for _, grant := range grants {
		client, err := s.clients.FindClient(ctx, grant.ClientID)
		if err != nil {
			return nil, fmt.Errorf("finding client %q: %w", grant.ClientID, err)
		}
		if client == nil {
			s.log.Debug("dropping grant for unknown client",
				zap.String("client_id", grant.ClientID))
			continue
		}

		resources, err := s.resources.FindResourcesByScope(ctx, grant.Scopes)
		if err != nil {
			return nil, fmt.Errorf("finding resources for client %q: %w", grant.ClientID, err)
		}

		summary := Summary{
			ClientID:      client.ID,
			ClientName:    client.DisplayName(),
			ClientLogoURL: client.LogoURL,
			ClientURL:     client.URL,
			Description:   grant.Description,
			CreatedAt:     grant.CreatedAt,
			ExpiresAt:     grant.ExpiresAt,
		}
		for _, r := range resources.IdentityResources {
			summary.IdentityScopeNames = append(summary.IdentityScopeNames, r.Display())
		}
		for _, a := range resources.APIScopes {
			summary.APIScopeNames = append(summary.APIScopeNames, a.Display())
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// Revoke deletes the subject's grant for the given client and emits the
// audit event. Revoking a grant that does not exist is a no-op.
func (s *Service) Revoke(ctx context.Context, subject, clientID string) error {
	if err := s.engine.DeleteGrant(ctx, subject, clientID); err != nil {
		return fmt.Errorf("revoking grant for client %q: %w", clientID, err)
	}

	s.events.Emit(ctx, audit.NewEvent(audit.GrantsRevoked, subject, clientID))

	return nil
}
