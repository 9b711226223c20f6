package directory

import "context"

// MemoryStore is an in-memory directory for development and tests.
type MemoryStore struct {
	clients   map[string]Client
	identity  map[string]IdentityResource
	apiScopes map[string]APIScope
}

// NewMemory builds an empty in-memory directory.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		clients:   make(map[string]Client),
		identity:  make(map[string]IdentityResource),
		apiScopes: make(map[string]APIScope),
	}
}

// NewSeeded builds an in-memory directory preloaded with the deployment's
// standard clients and resources.
func NewSeeded() *MemoryStore {
	s := NewMemory()

	s.AddClient(Client{
		ID:                   "code",
		Name:                 "Code",
		URL:                  "https://domain.com",
		AllowRememberConsent: true,
	})
	s.AddClient(Client{
		ID:                   "deviceflow",
		Name:                 "DeviceFlow",
		AllowRememberConsent: true,
	})

	s.AddIdentityResource(IdentityResource{Name: "openid", DisplayName: "Your user identifier"})
	s.AddIdentityResource(IdentityResource{Name: "profile", DisplayName: "User profile"})
	s.AddIdentityResource(IdentityResource{Name: "email", DisplayName: "Your email address"})

	s.AddAPIScope(APIScope{Name: "api", DisplayName: "API"})

	return s
}

// AddClient registers or replaces a client.
func (s *MemoryStore) AddClient(c Client) { s.clients[c.ID] = c }

// AddIdentityResource registers or replaces an identity resource.
func (s *MemoryStore) AddIdentityResource(r IdentityResource) { s.identity[r.Name] = r }

// AddAPIScope registers or replaces an API scope.
func (s *MemoryStore) AddAPIScope(a APIScope) { s.apiScopes[a.Name] = a }

// RemoveClient deletes a client, if present.
func (s *MemoryStore) RemoveClient(clientID string) { delete(s.clients, clientID) }

func (s *MemoryStore) FindClient(_ context.Context, clientID string) (*Client, error) {
	c, ok := s.clients[clientID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) FindResourcesByScope(_ context.Context, scopeNames []string) (Resources, error) {
	var res Resources
	for _, name := range scopeNames {
		if r, ok := s.identity[name]; ok {
			res.IdentityResources = append(res.IdentityResources, r)
		}
		if a, ok := s.apiScopes[name]; ok {
			res.APIScopes = append(res.APIScopes, a)
		}
	}
	return res, nil
}

// CheckHealth always succeeds for the in-memory directory.
func (s *MemoryStore) CheckHealth(context.Context) error { return nil }
