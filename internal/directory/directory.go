// Package directory provides read access to client and resource metadata:
// the configuration records owned by the identity-server deployment that the
// consent UI decorates its pages with.
package directory

import "context"

// Client is a registered client application's display metadata.
type Client struct {
	ID                   string
	Name                 string
	URL                  string
	LogoURL              string
	AllowRememberConsent bool
}

// DisplayName returns the client name, falling back to the client id.
func (c Client) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// IdentityResource is an identity scope definition.
type IdentityResource struct {
	Name        string
	DisplayName string
}

// Display returns the display name, falling back to the canonical name.
func (r IdentityResource) Display() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}

// APIScope is an API scope definition.
type APIScope struct {
	Name        string
	DisplayName string
}

// Display returns the display name, falling back to the canonical name.
func (s APIScope) Display() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// Resources groups the resource definitions matching a scope set.
type Resources struct {
	IdentityResources []IdentityResource
	APIScopes         []APIScope
}

// ClientStore finds client metadata by id. A nil client with a nil error
// means the client does not exist.
type ClientStore interface {
	FindClient(ctx context.Context, clientID string) (*Client, error)
}

// ResourceStore resolves scope names to their resource definitions. Unknown
// scope names are simply absent from the result.
type ResourceStore interface {
	FindResourcesByScope(ctx context.Context, scopeNames []string) (Resources, error)
}
