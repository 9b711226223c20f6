package directory

import (
	"context"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedStore is a read-through TTL cache over a client and resource store
// pair. Directory data changes rarely; grant-inventory pages hit it on every
// request.
type CachedStore struct {
	clients   ClientStore
	resources ResourceStore
	cache     *gocache.Cache
	ttl       time.Duration
}

// NewCached wraps the given stores with an in-process cache.
func NewCached(clients ClientStore, resources ResourceStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		clients:   clients,
		resources: resources,
		cache:     gocache.New(ttl, time.Minute),
		ttl:       ttl,
	}
}

// FindClient returns the cached client when present. Absent clients are not
// cached, so a freshly registered client shows up immediately.
func (s *CachedStore) FindClient(ctx context.Context, clientID string) (*Client, error) {
	key := "client:" + clientID
	if v, ok := s.cache.Get(key); ok {
		c := v.(Client)
		return &c, nil
	}

	client, err := s.clients.FindClient(ctx, clientID)
	if err != nil || client == nil {
		return client, err
	}

	s.cache.Set(key, *client, s.ttl)
	return client, nil
}

// FindResourcesByScope caches per distinct scope set.
func (s *CachedStore) FindResourcesByScope(ctx context.Context, scopeNames []string) (Resources, error) {
	key := resourcesKey(scopeNames)
	if v, ok := s.cache.Get(key); ok {
		return v.(Resources), nil
	}

	res, err := s.resources.FindResourcesByScope(ctx, scopeNames)
	if err != nil {
		return res, err
	}

	s.cache.Set(key, res, s.ttl)
	return res, nil
}

func resourcesKey(scopeNames []string) string {
	names := make([]string, len(scopeNames))
	copy(names, scopeNames)
	sort.Strings(names)
	return "resources:" + strings.Join(names, " ")
}
