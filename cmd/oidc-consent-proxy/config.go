package main

import "time"

// Config holds server configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	Env      string `envconfig:"ENV" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	RedisURL string `envconfig:"REDIS_URL" required:"true"`

	// PostgresDSN points at the identity server's configuration database.
	// Empty selects the seeded in-memory directory (development only).
	PostgresDSN       string        `envconfig:"POSTGRES_DSN"`
	DirectoryCacheTTL time.Duration `envconfig:"DIRECTORY_CACHE_TTL" default:"5m"`

	// Upstream identity server, used to establish the local session.
	IdPAuthURL      string `envconfig:"IDP_AUTH_URL" required:"true"`
	IdPTokenURL     string `envconfig:"IDP_TOKEN_URL" required:"true"`
	IdPClientID     string `envconfig:"IDP_CLIENT_ID" required:"true"`
	IdPClientSecret string `envconfig:"IDP_CLIENT_SECRET" required:"true"`
	BaseURL         string `envconfig:"BASE_URL" required:"true"`

	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"consent_session"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"8h"`

	CSRFSecret      string        `envconfig:"CSRF_SECRET" required:"true"`
	CSRFTokenExpiry time.Duration `envconfig:"CSRF_TOKEN_EXPIRY" default:"1h"`

	EnableOfflineAccess bool          `envconfig:"ENABLE_OFFLINE_ACCESS" default:"true"`
	DecisionTTL         time.Duration `envconfig:"DECISION_TTL" default:"5m"`
	GrantTTL            time.Duration `envconfig:"GRANT_TTL" default:"0"`

	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
}
