package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// ErrorHandler writes the response for a request whose session could not be
// loaded or finalized.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithSecrets sets the signing secrets, newest first
func WithSecrets(secrets ...string) Option {
	return func(m *Manager) {
		m.config.Secrets = secrets
	}
}

// WithCookieName sets the session cookie name
func WithCookieName(name string) Option {
	return func(m *Manager) {
		m.config.CookieName = name
	}
}

// WithMaxAge enables sliding expiration
func WithMaxAge(d time.Duration) Option {
	return func(m *Manager) {
		m.config.MaxAge = d
	}
}

// WithExpires sets a fixed absolute expiry
func WithExpires(t time.Time) Option {
	return func(m *Manager) {
		m.config.Expires = t
	}
}

func WithPath(path string) Option {
	return func(m *Manager) {
		m.config.Path = path
	}
}

func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.config.Domain = domain
	}
}

func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.config.Secure = secure
	}
}

func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Manager) {
		m.config.HTTPOnly = httpOnly
	}
}

func WithSameSite(sameSite http.SameSite) Option {
	return func(m *Manager) {
		m.config.SameSite = sameSite
	}
}

// WithTransport replaces the signed cookie transport
func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithClock sets the clock used to compute expiries
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithIDGenerator replaces GenerateID
func WithIDGenerator(fn IDGenerator) Option {
	return func(m *Manager) {
		if fn != nil {
			m.generate = fn
		}
	}
}

// WithLogger sets the logger used for finalize failures
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithErrorHandler sets the handler invoked by the middleware on store failures
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Manager) {
		if h != nil {
			m.errorHandler = h
		}
	}
}

// WithMetrics records finalize outcomes
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}
