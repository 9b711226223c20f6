// Package consent implements the consent and grant-decision logic for
// in-flight authorization requests: interactive browser consent and
// device-flow user-code confirmation.
package consent

// Client describes the client application asking for consent, as resolved by
// the interaction engine for a single request.
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

// IdentityScope describes a requested identity scope (claim group).
type IdentityScope struct {
	Name        string
	DisplayName string
	Description string
	Emphasize   bool
	Required    bool
}

// APIScope describes an API scope known to the deployment.
type APIScope struct {
	Name        string
	DisplayName string
	Description string
	Emphasize   bool
	Required    bool
}

// ParsedScope is a requested API scope value after parsing. Name is the
// canonical scope name, Value the raw requested value, and Parameter any
// suffix carried by the raw value (e.g. "id" in "resource:id").
type ParsedScope struct {
	Name      string
	Value     string
	Parameter string
}

// Resources is the validated resource set of an authorization request.
type Resources struct {
	IdentityScopes []IdentityScope
	ParsedScopes   []ParsedScope
	APIScopes      []APIScope

	// OfflineAccess is true when the request includes a refresh-token scope
	// and the deployment permits offline access for this client.
	OfflineAccess bool

	// RawScopeValues is the full raw requested scope set, used for audit
	// events regardless of what the user ends up checking.
	RawScopeValues []string
}

// FindAPIScope resolves a parsed scope name against the known API scopes.
// Returns nil when the descriptor is unknown.
func (r Resources) FindAPIScope(name string) *APIScope {
	for i := range r.APIScopes {
		if r.APIScopes[i].Name == name {
			return &r.APIScopes[i]
		}
	}
	return nil
}

// AuthorizationContext is the in-flight authorization request resolved by the
// interaction engine for a return-URL token or a device user code. It is
// read-only and lives for a single request-response cycle.
type AuthorizationContext struct {
	Client      Client
	RedirectURI string
	Resources   Resources

	// PriorConsentedScopes holds scope values the user already accepted for
	// this client on an earlier request. Empty on a fresh request.
	PriorConsentedScopes []string
}

// Selector identifies the in-flight request a decision applies to. Exactly
// one of the two fields is set.
type Selector struct {
	ReturnURL string
	UserCode  string
}

// IsDevice reports whether the selector addresses a device-flow request.
func (s Selector) IsDevice() bool { return s.UserCode != "" }

// PriorSelection is the set of scope values a user selected on an earlier
// form submission. A nil PriorSelection means no submission has happened yet,
// in which case every scope defaults to checked; a non-nil selection checks
// exactly the contained values. Required scopes are checked either way.
type PriorSelection map[string]struct{}

// NewPriorSelection builds a non-nil selection from submitted scope values.
func NewPriorSelection(values []string) PriorSelection {
	sel := make(PriorSelection, len(values))
	for _, v := range values {
		sel[v] = struct{}{}
	}
	return sel
}

// Checked reports whether a scope value should render as checked.
func (p PriorSelection) Checked(value string) bool {
	if p == nil {
		return true
	}
	_, ok := p[value]
	return ok
}
