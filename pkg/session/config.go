package session

import (
	"net/http"
	"time"
)

// DefaultTTL is the record lifetime used when neither MaxAge nor Expires is set.
const DefaultTTL = 24 * time.Hour

// DefaultCleanupInterval is the sweep interval for stores without native expiry.
const DefaultCleanupInterval = 60 * time.Second

// Config holds session configuration
type Config struct {
	// CookieName is the name of the session cookie (default: "SID")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"SID"`

	// Secrets sign session ids. The first one signs, all of them verify.
	Secrets []string `env:"SESSION_SECRETS" envSeparator:","`

	// MaxAge gives sliding expiration: every request pushes the expiry to now+MaxAge.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"0"`

	// Expires is a fixed absolute expiry, used when MaxAge is zero.
	Expires time.Time `env:"SESSION_EXPIRES"`

	Path     string        `env:"SESSION_COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	Secure   bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	HTTPOnly bool          `env:"SESSION_COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite http.SameSite `env:"SESSION_COOKIE_SAME_SITE" envDefault:"2"` // 2 = SameSiteLaxMode

	// CleanupInterval for expired sessions in stores without native expiry
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"60s"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName:      "SID",
		Path:            "/",
		HTTPOnly:        true,
		SameSite:        http.SameSiteLaxMode,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// ExpiresAt returns the record expiry for a request handled at now.
func (c Config) ExpiresAt(now time.Time) time.Time {
	if c.MaxAge > 0 {
		return now.Add(c.MaxAge)
	}
	if !c.Expires.IsZero() {
		return c.Expires
	}
	return now.Add(DefaultTTL)
}

// NewFromConfig creates a new Manager from the provided Config.
func NewFromConfig(store Store, cfg Config, opts ...Option) (*Manager, error) {
	configOpts := []Option{
		WithConfig(cfg),
	}

	configOpts = append(configOpts, opts...)

	return New(store, configOpts...)
}
