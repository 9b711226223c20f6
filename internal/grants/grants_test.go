package grants

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wrale/oidc-consent-proxy/internal/audit"
	"github.com/wrale/oidc-consent-proxy/internal/directory"
)

type mockEngine struct {
	grants  map[string][]Grant
	deleted []string
	listErr error
}

func (m *mockEngine) ListGrants(_ context.Context, subject string) ([]Grant, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.grants[subject], nil
}

func (m *mockEngine) DeleteGrant(_ context.Context, subject, clientID string) error {
	m.deleted = append(m.deleted, subject+"/"+clientID)
	return nil
}

type recordingSink struct {
	events []audit.Event
}

func (r *recordingSink) Emit(_ context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

func testService(t *testing.T, engine Engine, sink audit.Sink) *Service {
	t.Helper()
	store := directory.NewSeeded()
	return NewService(engine, store, store, sink, zaptest.NewLogger(t))
}

func TestListJoinsDisplayMetadata(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := &mockEngine{grants: map[string][]Grant{
		"alice": {{
			ClientID:    "code",
			Scopes:      []string{"openid", "profile", "api"},
			Description: "work laptop",
			CreatedAt:   created,
		}},
	}}

	service := testService(t, engine, audit.NopSink{})

	summaries, err := service.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	summary := summaries[0]
	assert.Equal(t, "code", summary.ClientID)
	assert.NotEmpty(t, summary.ClientName)
	assert.Equal(t, "work laptop", summary.Description)
	assert.Equal(t, created, summary.CreatedAt)
	assert.Len(t, summary.IdentityScopeNames, 2)
	assert.Len(t, summary.APIScopeNames, 1)
}

func TestListDropsGrantsForDeletedClients(t *testing.T) {
	engine := &mockEngine{grants: map[string][]Grant{
		"alice": {
			{ClientID: "code", Scopes: []string{"openid"}},
			{ClientID: "deleted-client", Scopes: []string{"openid"}},
		},
	}}

	service := testService(t, engine, audit.NopSink{})

	summaries, err := service.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "code", summaries[0].ClientID)
}

func TestListEmpty(t *testing.T) {
	service := testService(t, &mockEngine{}, audit.NopSink{})

	summaries, err := service.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestListEngineError(t *testing.T) {
	engine := &mockEngine{listErr: errors.New("redis down")}
	service := testService(t, engine, audit.NopSink{})

	_, err := service.List(context.Background(), "alice")
	assert.Error(t, err)
}

func TestRevokeEmitsEvent(t *testing.T) {
	engine := &mockEngine{}
	sink := &recordingSink{}
	service := testService(t, engine, sink)

	// Revocation is idempotent: no grant needs to exist.
	require.NoError(t, service.Revoke(context.Background(), "alice", "code"))
	require.NoError(t, service.Revoke(context.Background(), "alice", "code"))

	assert.Equal(t, []string{"alice/code", "alice/code"}, engine.deleted)

	require.Len(t, sink.events, 2)
	assert.Equal(t, audit.GrantsRevoked, sink.events[0].Type)
	assert.Equal(t, "alice", sink.events[0].Subject)
	assert.Equal(t, "code", sink.events[0].ClientID)
}
