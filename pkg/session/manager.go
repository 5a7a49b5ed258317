package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Manager loads session state at the start of a request and writes it back
// with exactly one store operation at the end.
type Manager struct {
	store        Store
	transport    Transport
	config       Config
	clock        clockwork.Clock
	generate     IDGenerator
	logger       *slog.Logger
	errorHandler ErrorHandler
	metrics      *Metrics
}

// New creates a session manager backed by store. Configuration problems are
// reported here, wrapped with ErrConfig, and never while serving requests.
func New(store Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:    store,
		config:   DefaultConfig(),
		clock:    clockwork.NewRealClock(),
		generate: GenerateID,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		return nil, errors.Join(ErrConfig, ErrNoStore)
	}

	if m.transport == nil {
		transport, err := m.cookieTransport()
		if err != nil {
			return nil, errors.Join(ErrConfig, err)
		}
		m.transport = transport
	}

	if m.errorHandler == nil {
		m.errorHandler = m.defaultErrorHandler
	}

	return m, nil
}

func (m *Manager) cookieTransport() (*CookieTransport, error) {
	if m.config.CookieName == "" {
		return nil, errors.New("session: cookie name is required")
	}

	cookieMgr, err := cookie.New(m.config.Secrets,
		cookie.WithPath(m.config.Path),
		cookie.WithDomain(m.config.Domain),
		cookie.WithSecure(m.config.Secure),
		cookie.WithHTTPOnly(m.config.HTTPOnly),
		cookie.WithSameSite(m.config.SameSite),
	)
	if err != nil {
		return nil, fmt.Errorf("session cookie: %w", err)
	}

	// Both attributes are passed through as configured. The record expiry
	// prefers MaxAge, see Config.ExpiresAt.
	var opts []cookie.Option
	if m.config.MaxAge > 0 {
		opts = append(opts, cookie.WithMaxAge(int(m.config.MaxAge.Seconds())))
	}
	if !m.config.Expires.IsZero() {
		opts = append(opts, cookie.WithExpires(m.config.Expires))
	}

	return NewCookieTransport(cookieMgr, m.config.CookieName, opts...), nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Expiry returns the record expiry for a write made now.
func (m *Manager) Expiry() time.Time {
	return m.config.ExpiresAt(m.clock.Now())
}

// Load reads the session id from the request and fetches its payload. A
// request without a verifiable id yields an empty new state; only store
// failures are returned as errors.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*State, error) {
	id, ok := m.transport.ReadID(r)
	if !ok {
		return NewState("", nil), nil
	}

	data, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, WrapStoreError("get", err)
	}

	return NewState(id, data), nil
}

// Finalize resolves the lifecycle action for state and applies it: at most
// one store write plus, for regenerate, the removal of the old record. The
// cookie is written only after the store accepted the change. A state can be
// finalized once.
func (m *Manager) Finalize(ctx context.Context, w http.ResponseWriter, state *State) (Decision, error) {
	if state == nil {
		return Decision{}, ErrSessionMissing
	}
	if state.finalized {
		return Decision{}, ErrSessionFinalized
	}
	state.finalized = true

	decision, err := Resolve(state.input(), m.generate)
	if err != nil {
		m.metrics.observeFinalize(ActionNone, err)
		return Decision{}, err
	}

	err = m.apply(ctx, w, decision)
	m.metrics.observeFinalize(decision.Action, err)
	if err != nil {
		return decision, err
	}

	if decision.SessionID != "" {
		state.id = decision.SessionID
	}

	m.logger.DebugContext(ctx, "session finalized",
		logger.Component("session"),
		logger.SessionAction(decision.Action),
	)

	return decision, nil
}

func (m *Manager) apply(ctx context.Context, w http.ResponseWriter, d Decision) error {
	now := m.clock.Now()

	switch d.Action {
	case ActionNone:
		if d.ClearCookie {
			m.transport.ClearID(w)
		}
		return nil

	case ActionCreate:
		if err := m.store.Set(ctx, d.SessionID, d.Data, m.config.ExpiresAt(now)); err != nil {
			return WrapStoreError("set", err)
		}
		return m.transport.WriteID(w, d.SessionID)

	case ActionUpdate:
		if err := m.store.Set(ctx, d.SessionID, d.Data, m.config.ExpiresAt(now)); err != nil {
			return WrapStoreError("set", err)
		}
		return m.transport.WriteID(w, d.SessionID)

	case ActionTouch:
		if err := m.store.Touch(ctx, d.SessionID, m.config.ExpiresAt(now)); err != nil {
			return WrapStoreError("touch", err)
		}
		return m.transport.WriteID(w, d.SessionID)

	case ActionDestroy:
		if err := m.store.Destroy(ctx, d.DestroyID); err != nil {
			return WrapStoreError("destroy", err)
		}
		m.transport.ClearID(w)
		return nil

	case ActionRegenerate:
		if err := m.store.Destroy(ctx, d.DestroyID); err != nil {
			return WrapStoreError("destroy", err)
		}
		if err := m.store.Set(ctx, d.SessionID, d.Data, m.config.ExpiresAt(now)); err != nil {
			return WrapStoreError("set", err)
		}
		return m.transport.WriteID(w, d.SessionID)

	default:
		return fmt.Errorf("%w: %d", ErrUnknownAction, int(d.Action))
	}
}

func (m *Manager) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.ErrorContext(r.Context(), "session lifecycle failed",
		logger.Component("session"),
		logger.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
