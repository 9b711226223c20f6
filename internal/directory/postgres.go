package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads client and resource metadata from the identity
// server's configuration database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a directory store to the configuration database.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 5
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the underlying pool. Idempotent.
func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// CheckHealth verifies database connectivity.
func (s *PostgresStore) CheckHealth(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

// FindClient returns the client row for the given id, or nil when absent.
func (s *PostgresStore) FindClient(ctx context.Context, clientID string) (*Client, error) {
	const query = `
		SELECT client_id, client_name, client_uri, logo_uri, allow_remember_consent
		FROM clients
		WHERE client_id = $1`

	var c Client
	err := s.pool.QueryRow(ctx, query, clientID).Scan(
		&c.ID, &c.Name, &c.URL, &c.LogoURL, &c.AllowRememberConsent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding client %q: %w", clientID, err)
	}

	return &c, nil
}

// FindResourcesByScope returns the identity resources and API scopes whose
// names appear in the given scope set.
func (s *PostgresStore) FindResourcesByScope(ctx context.Context, scopeNames []string) (Resources, error) {
	var res Resources
	if len(scopeNames) == 0 {
		return res, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT name, display_name FROM identity_resources WHERE name = ANY($1)`, scopeNames)
	if err != nil {
		return res, fmt.Errorf("querying identity resources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r IdentityResource
		if err := rows.Scan(&r.Name, &r.DisplayName); err != nil {
			return res, fmt.Errorf("scanning identity resource: %w", err)
		}
		res.IdentityResources = append(res.IdentityResources, r)
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("reading identity resources: %w", err)
	}

	apiRows, err := s.pool.Query(ctx,
		`SELECT name, display_name FROM api_scopes WHERE name = ANY($1)`, scopeNames)
	if err != nil {
		return res, fmt.Errorf("querying api scopes: %w", err)
	}
	defer apiRows.Close()
	for apiRows.Next() {
		var a APIScope
		if err := apiRows.Scan(&a.Name, &a.DisplayName); err != nil {
			return res, fmt.Errorf("scanning api scope: %w", err)
		}
		res.APIScopes = append(res.APIScopes, a)
	}
	if err := apiRows.Err(); err != nil {
		return res, fmt.Errorf("reading api scopes: %w", err)
	}

	return res, nil
}
