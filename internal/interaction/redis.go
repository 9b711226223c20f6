package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wrale/oidc-consent-proxy/internal/consent"
	"github.com/wrale/oidc-consent-proxy/internal/grants"
	"github.com/wrale/oidc-consent-proxy/internal/validation"
)

const (
	consentPrefix    = "authz:"
	userCodePrefix   = "ucode:"
	decisionPrefix   = "decision:"
	grantPrefix      = "grant:"
	grantIndexPrefix = "grants:"
)

// ErrRequestGone indicates the pending request disappeared between
// resolution and decision persistence.
var ErrRequestGone = errors.New("authorization request no longer pending")

// RedisEngine implements the interaction engine against Redis. It satisfies
// consent.Engine and grants.Engine.
type RedisEngine struct {
	client      *redis.Client
	decisionTTL time.Duration
	grantTTL    time.Duration
}

// EngineOption configures the Redis engine.
type EngineOption func(*RedisEngine)

// WithDecisionTTL sets how long a decision record stays readable for the
// identity-server engine.
func WithDecisionTTL(d time.Duration) EngineOption {
	return func(e *RedisEngine) { e.decisionTTL = d }
}

// WithGrantTTL sets an expiry on remembered grants. Zero means grants do not
// expire.
func WithGrantTTL(d time.Duration) EngineOption {
	return func(e *RedisEngine) { e.grantTTL = d }
}

// NewRedisEngine creates a Redis-backed interaction engine.
func NewRedisEngine(client *redis.Client, opts ...EngineOption) *RedisEngine {
	e := &RedisEngine{
		client:      client,
		decisionTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckHealth verifies Redis connectivity.
func (e *RedisEngine) CheckHealth(ctx context.Context) error {
	if err := e.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// SaveConsentRequest parks an interactive authorization request under its
// return-URL token.
func (e *RedisEngine) SaveConsentRequest(ctx context.Context, returnURL string, authCtx *consent.AuthorizationContext, ttl time.Duration) error {
	return e.savePending(ctx, consentPrefix+returnURL, authCtx, ttl)
}

// SaveDeviceRequest parks a device authorization request under its user
// code.
func (e *RedisEngine) SaveDeviceRequest(ctx context.Context, userCode string, authCtx *consent.AuthorizationContext, ttl time.Duration) error {
	return e.savePending(ctx, userCodePrefix+validation.NormalizeCode(userCode), authCtx, ttl)
}

func (e *RedisEngine) savePending(ctx context.Context, key string, authCtx *consent.AuthorizationContext, ttl time.Duration) error {
	now := time.Now()
	data, err := json.Marshal(PendingRequest{
		Context:   *authCtx,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("marshaling pending request: %w", err)
	}

	if err := e.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("saving pending request: %w", err)
	}
	return nil
}

// ResolveConsent resolves an interactive request by return-URL token.
// Returns (nil, nil) when the token is unknown or expired.
func (e *RedisEngine) ResolveConsent(ctx context.Context, returnURL string) (*consent.AuthorizationContext, error) {
	return e.resolve(ctx, consentPrefix+returnURL)
}

// ResolveDevice resolves a device request by user code. Returns (nil, nil)
// when the code is unknown or expired.
func (e *RedisEngine) ResolveDevice(ctx context.Context, userCode string) (*consent.AuthorizationContext, error) {
	return e.resolve(ctx, userCodePrefix+validation.NormalizeCode(userCode))
}

func (e *RedisEngine) resolve(ctx context.Context, key string) (*consent.AuthorizationContext, error) {
	data, err := e.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting pending request: %w", err)
	}

	var pending PendingRequest
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("unmarshaling pending request: %w", err)
	}

	if time.Now().After(pending.ExpiresAt) {
		return nil, nil
	}

	return &pending.Context, nil
}

// SaveDecision writes the decision record, remembers the grant when
// applicable, and consumes the pending request. Device-flow grants are
// always remembered; interactive grants only when the user asked to.
func (e *RedisEngine) SaveDecision(ctx context.Context, subject string, sel consent.Selector, outcome consent.Outcome) error {
	key := pendingKey(sel)

	authCtx, err := e.resolve(ctx, key)
	if err != nil {
		return err
	}
	if authCtx == nil {
		return ErrRequestGone
	}

	now := time.Now()
	record := DecisionRecord{
		Subject:     subject,
		ClientID:    authCtx.Client.ID,
		Granted:     outcome.Status == consent.StatusGranted,
		Scopes:      outcome.Scopes,
		Remember:    outcome.Remember,
		Description: outcome.Description,
		DecidedAt:   now,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling decision: %w", err)
	}

	pipe := e.client.Pipeline()
	pipe.Set(ctx, decisionPrefix+selectorToken(sel), data, e.decisionTTL)
	pipe.Del(ctx, key)

	if record.Granted && (outcome.Remember || sel.IsDevice()) {
		grant := grantRecord{
			ClientID:    authCtx.Client.ID,
			Scopes:      outcome.Scopes,
			Description: outcome.Description,
			CreatedAt:   now,
		}
		if e.grantTTL > 0 {
			expires := now.Add(e.grantTTL)
			grant.ExpiresAt = &expires
		}
		grantData, err := json.Marshal(grant)
		if err != nil {
			return fmt.Errorf("marshaling grant: %w", err)
		}
		pipe.Set(ctx, grantKey(subject, authCtx.Client.ID), grantData, e.grantTTL)
		pipe.SAdd(ctx, grantIndexPrefix+subject, authCtx.Client.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving decision: %w", err)
	}
	return nil
}

// GetDecision reads a decision record back, or nil when absent. This is the
// read side the identity-server engine polls after the browser returns.
func (e *RedisEngine) GetDecision(ctx context.Context, sel consent.Selector) (*DecisionRecord, error) {
	data, err := e.client.Get(ctx, decisionPrefix+selectorToken(sel)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting decision: %w", err)
	}

	var record DecisionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling decision: %w", err)
	}
	return &record, nil
}

// ListGrants returns the subject's remembered grants. Index entries whose
// grant has expired are cleaned up as they are encountered.
func (e *RedisEngine) ListGrants(ctx context.Context, subject string) ([]grants.Grant, error) {
	clientIDs, err := e.client.SMembers(ctx, grantIndexPrefix+subject).Result()
	if err != nil {
		return nil, fmt.Errorf("listing grant index: %w", err)
	}

	list := make([]grants.Grant, 0, len(clientIDs))
	for _, clientID := range clientIDs {
		data, err := e.client.Get(ctx, grantKey(subject, clientID)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				e.client.SRem(ctx, grantIndexPrefix+subject, clientID)
				continue
			}
			return nil, fmt.Errorf("getting grant for client %q: %w", clientID, err)
		}

		var record grantRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("unmarshaling grant for client %q: %w", clientID, err)
		}

		list = append(list, grants.Grant{
			ClientID:    record.ClientID,
			Scopes:      record.Scopes,
			Description: record.Description,
			CreatedAt:   record.CreatedAt,
			ExpiresAt:   record.ExpiresAt,
		})
	}

	return list, nil
}

// DeleteGrant removes the subject's grant for a client. Deleting a grant
// that does not exist is a no-op.
func (e *RedisEngine) DeleteGrant(ctx context.Context, subject, clientID string) error {
	pipe := e.client.Pipeline()
	pipe.Del(ctx, grantKey(subject, clientID))
	pipe.SRem(ctx, grantIndexPrefix+subject, clientID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting grant: %w", err)
	}
	return nil
}

func pendingKey(sel consent.Selector) string {
	if sel.IsDevice() {
		return userCodePrefix + validation.NormalizeCode(sel.UserCode)
	}
	return consentPrefix + sel.ReturnURL
}

func selectorToken(sel consent.Selector) string {
	if sel.IsDevice() {
		return validation.NormalizeCode(sel.UserCode)
	}
	return sel.ReturnURL
}

func grantKey(subject, clientID string) string {
	return grantPrefix + subject + ":" + clientID
}
