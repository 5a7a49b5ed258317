package session_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const cookieName = "SID"

type faultyStore struct {
	*session.MemoryStore
	failGet   atomic.Bool
	failSet   atomic.Bool
	failTouch atomic.Bool
	sets      atomic.Int64
	touches   atomic.Int64
	destroys  atomic.Int64
}

var errBackendDown = errors.New("backend down")

func newFaultyStore(opts ...session.MemoryOption) *faultyStore {
	return &faultyStore{MemoryStore: session.NewMemoryStore(opts...)}
}

func (s *faultyStore) Get(ctx context.Context, id string) (session.Values, error) {
	if s.failGet.Load() {
		return nil, errBackendDown
	}
	return s.MemoryStore.Get(ctx, id)
}

func (s *faultyStore) Set(ctx context.Context, id string, data session.Values, exp time.Time) error {
	s.sets.Add(1)
	if s.failSet.Load() {
		return errBackendDown
	}
	return s.MemoryStore.Set(ctx, id, data, exp)
}

func (s *faultyStore) Touch(ctx context.Context, id string, exp time.Time) error {
	s.touches.Add(1)
	if s.failTouch.Load() {
		return context.DeadlineExceeded
	}
	return s.MemoryStore.Touch(ctx, id, exp)
}

func (s *faultyStore) Destroy(ctx context.Context, id string) error {
	s.destroys.Add(1)
	return s.MemoryStore.Destroy(ctx, id)
}

func setupManager(t *testing.T, store session.Store, opts ...session.Option) *session.Manager {
	t.Helper()
	opts = append([]session.Option{session.WithSecrets(testSecret)}, opts...)
	m, err := session.New(store, opts...)
	require.NoError(t, err)
	return m
}

// serve runs one request through the middleware carrying the given cookies.
func serve(t *testing.T, m *session.Manager, h http.HandlerFunc, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	m.Middleware(h).ServeHTTP(w, r)
	return w.Result()
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func cookieID(t *testing.T, c *http.Cookie) string {
	t.Helper()
	require.NotNil(t, c)
	id, ok := session.Verify(c.Value, []string{testSecret})
	require.True(t, ok)
	return id
}

func setUser(w http.ResponseWriter, r *http.Request) {
	session.MustFromContext(r.Context()).Set("user", "u1")
	_, _ = io.WriteString(w, "ok")
}

func noop(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "ok")
}

func TestNew_Config(t *testing.T) {
	t.Parallel()

	t.Run("missing secret", func(t *testing.T) {
		_, err := session.New(session.NewMemoryStore())
		assert.ErrorIs(t, err, session.ErrConfig)
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("short secret", func(t *testing.T) {
		_, err := session.New(session.NewMemoryStore(), session.WithSecrets("short"))
		assert.ErrorIs(t, err, session.ErrConfig)
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})

	t.Run("missing store", func(t *testing.T) {
		_, err := session.New(nil, session.WithSecrets(testSecret))
		assert.ErrorIs(t, err, session.ErrConfig)
		assert.ErrorIs(t, err, session.ErrNoStore)
	})

	t.Run("from config", func(t *testing.T) {
		cfg := session.DefaultConfig()
		cfg.Secrets = []string{testSecret}
		cfg.CookieName = "app_sid"
		m, err := session.NewFromConfig(session.NewMemoryStore(), cfg)
		require.NoError(t, err)
		assert.Equal(t, "app_sid", m.Config().CookieName)
	})
}

func TestConfig_ExpiresAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	cfg := session.DefaultConfig()
	assert.Equal(t, now.Add(session.DefaultTTL), cfg.ExpiresAt(now))

	fixed := now.Add(72 * time.Hour)
	cfg.Expires = fixed
	assert.Equal(t, fixed, cfg.ExpiresAt(now))

	cfg.MaxAge = 10 * time.Minute
	assert.Equal(t, now.Add(10*time.Minute), cfg.ExpiresAt(now))
}

func TestMiddleware_Lifecycle(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	m := setupManager(t, store)
	ctx := context.Background()

	t.Run("untouched new session writes nothing", func(t *testing.T) {
		resp := serve(t, m, noop)
		assert.Nil(t, sessionCookie(resp))
		assert.Zero(t, store.Len())
	})

	var sid *http.Cookie

	t.Run("first write creates", func(t *testing.T) {
		resp := serve(t, m, setUser)
		sid = sessionCookie(resp)
		require.NotNil(t, sid)
		assert.True(t, sid.HttpOnly)
		assert.Equal(t, "/", sid.Path)

		data, err := store.Get(ctx, cookieID(t, sid))
		require.NoError(t, err)
		assert.Equal(t, session.Values{"user": "u1"}, data)
	})

	t.Run("read only request touches", func(t *testing.T) {
		touches := store.touches.Load()
		sets := store.sets.Load()

		var user string
		resp := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
			state := session.MustFromContext(r.Context())
			assert.False(t, state.IsNew())
			user, _ = state.GetString("user")
			state.Data()["user"] = "in-place"
		}, sid)

		assert.Equal(t, "u1", user)
		refreshed := sessionCookie(resp)
		require.NotNil(t, refreshed, "touch re-emits the cookie")
		assert.Equal(t, sid.Value, refreshed.Value)
		assert.Equal(t, touches+1, store.touches.Load())
		assert.Equal(t, sets, store.sets.Load())
	})

	t.Run("explicit change updates", func(t *testing.T) {
		serve(t, m, func(w http.ResponseWriter, r *http.Request) {
			session.MustFromContext(r.Context()).Set("theme", "dark")
		}, sid)

		data, err := store.Get(ctx, cookieID(t, sid))
		require.NoError(t, err)
		assert.Equal(t, session.Values{"user": "u1", "theme": "dark"}, data)
	})

	var rotated *http.Cookie

	t.Run("regenerate moves payload to a new id", func(t *testing.T) {
		resp := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
			state := session.MustFromContext(r.Context())
			state.Regenerate(nil)
			w.WriteHeader(http.StatusNoContent)
			assert.NotEmpty(t, state.ID(), "id assigned once finalized")
		}, sid)

		rotated = sessionCookie(resp)
		require.NotNil(t, rotated)
		assert.NotEqual(t, cookieID(t, sid), cookieID(t, rotated))

		old, err := store.Get(ctx, cookieID(t, sid))
		require.NoError(t, err)
		assert.Nil(t, old)

		data, err := store.Get(ctx, cookieID(t, rotated))
		require.NoError(t, err)
		assert.Equal(t, "u1", data["user"])
	})

	t.Run("old cookie after regenerate is a stale session", func(t *testing.T) {
		resp := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, session.MustFromContext(r.Context()).IsNew())
		}, sid)

		c := sessionCookie(resp)
		require.NotNil(t, c)
		assert.Equal(t, cookie.InvalidatedValue, c.Value)
	})

	t.Run("destroy clears record and cookie", func(t *testing.T) {
		resp := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
			session.MustFromContext(r.Context()).Destroy()
		}, rotated)

		c := sessionCookie(resp)
		require.NotNil(t, c)
		assert.Equal(t, cookie.InvalidatedValue, c.Value)
		assert.Negative(t, c.MaxAge)
		assert.True(t, c.Expires.Equal(time.Unix(0, 0)), "expires at epoch, got %v", c.Expires)

		data, err := store.Get(ctx, cookieID(t, rotated))
		require.NoError(t, err)
		assert.Nil(t, data)
	})
}

func TestMiddleware_TamperedCookie(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	m := setupManager(t, store)

	forged := &http.Cookie{Name: cookieName, Value: session.Sign("victim", "another-secret-that-is-32-chars!")}

	called := false
	resp := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		called = true
		state := session.MustFromContext(r.Context())
		assert.True(t, state.IsNew())
		assert.Empty(t, state.ID())
	}, forged)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))
}

func TestMiddleware_SecretRotation(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	old := setupManager(t, store, session.WithSecrets(testOldSecret))
	sid := sessionCookie(serve(t, old, setUser))
	require.NotNil(t, sid)

	rotated := setupManager(t, store, session.WithSecrets(testSecret, testOldSecret))

	var user string
	serve(t, rotated, func(w http.ResponseWriter, r *http.Request) {
		user, _ = session.MustFromContext(r.Context()).GetString("user")
	}, sid)
	assert.Equal(t, "u1", user)
}

func TestMiddleware_SlidingExpiry(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := newFaultyStore(session.WithMemoryClock(clock))
	m := setupManager(t, store,
		session.WithClock(clock),
		session.WithMaxAge(10*time.Minute),
	)

	sid := sessionCookie(serve(t, m, setUser))
	require.NotNil(t, sid)
	assert.Equal(t, 600, sid.MaxAge)

	clock.Advance(8 * time.Minute)
	resp := serve(t, m, noop, sid)
	refreshed := sessionCookie(resp)
	require.NotNil(t, refreshed, "sliding expiry rewrites the cookie on touch")
	assert.Equal(t, sid.Value, refreshed.Value)

	clock.Advance(8 * time.Minute)
	var isNew bool
	serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		isNew = session.MustFromContext(r.Context()).IsNew()
	}, sid)
	assert.False(t, isNew, "touch extended the record")

	clock.Advance(11 * time.Minute)
	serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		isNew = session.MustFromContext(r.Context()).IsNew()
	}, sid)
	assert.True(t, isNew, "record expired")
}

func TestMiddleware_CookieAttributes(t *testing.T) {
	t.Parallel()

	expires := time.Date(2040, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("max age and expires together", func(t *testing.T) {
		m := setupManager(t, newFaultyStore(),
			session.WithMaxAge(24*time.Hour),
			session.WithExpires(expires),
		)

		c := sessionCookie(serve(t, m, setUser))
		require.NotNil(t, c)
		assert.Equal(t, 86400, c.MaxAge)
		assert.True(t, c.Expires.Equal(expires), "got %v", c.Expires)
	})

	t.Run("expires only is re-emitted on touch and update", func(t *testing.T) {
		store := newFaultyStore()
		m := setupManager(t, store, session.WithExpires(expires))

		sid := sessionCookie(serve(t, m, setUser))
		require.NotNil(t, sid)
		assert.Zero(t, sid.MaxAge)
		assert.True(t, sid.Expires.Equal(expires))

		touched := sessionCookie(serve(t, m, noop, sid))
		require.NotNil(t, touched)
		assert.Equal(t, sid.Value, touched.Value)
		assert.True(t, touched.Expires.Equal(expires))

		updated := sessionCookie(serve(t, m, setUser, sid))
		require.NotNil(t, updated)
		assert.Equal(t, sid.Value, updated.Value)
	})

	t.Run("touch carries the current expires", func(t *testing.T) {
		store := newFaultyStore()
		sid := sessionCookie(serve(t, setupManager(t, store, session.WithExpires(expires)), setUser))
		require.NotNil(t, sid)

		later := expires.Add(48 * time.Hour)
		touched := sessionCookie(serve(t, setupManager(t, store, session.WithExpires(later)), noop, sid))
		require.NotNil(t, touched)
		assert.True(t, touched.Expires.Equal(later), "got %v", touched.Expires)
	})
}

func TestMiddleware_StoreFailures(t *testing.T) {
	t.Parallel()

	t.Run("failed write returns 500 and drops the body", func(t *testing.T) {
		store := newFaultyStore()
		store.failSet.Store(true)
		m := setupManager(t, store)

		resp := serve(t, m, setUser)
		body, _ := io.ReadAll(resp.Body)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.NotContains(t, string(body), "ok")
		assert.Nil(t, sessionCookie(resp), "cookie is not issued for an unsaved session")
	})

	t.Run("failed load skips the handler", func(t *testing.T) {
		store := newFaultyStore()
		m := setupManager(t, store)
		sid := sessionCookie(serve(t, m, setUser))
		require.NotNil(t, sid)

		store.failGet.Store(true)
		called := false
		resp := serve(t, m, func(w http.ResponseWriter, r *http.Request) { called = true }, sid)

		assert.False(t, called)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("custom error handler sees store error kind", func(t *testing.T) {
		store := newFaultyStore()
		var got error
		m := setupManager(t, store, session.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		sid := sessionCookie(serve(t, m, setUser))
		require.NotNil(t, sid)

		store.failTouch.Store(true)
		resp := serve(t, m, noop, sid)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.ErrorIs(t, got, session.ErrStoreTimeout)

		var se *session.StoreError
		require.ErrorAs(t, got, &se)
		assert.Equal(t, "touch", se.Op)
	})
}

func TestMiddleware_FinalizeAfterSilentHandler(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	m := setupManager(t, store)

	resp := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("a", 1)
	})

	require.NotNil(t, sessionCookie(resp))
	assert.Equal(t, 1, store.Len())
}

func TestMiddleware_ResponseController(t *testing.T) {
	t.Parallel()

	m := setupManager(t, newFaultyStore())

	resp := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("a", 1)
		require.NoError(t, http.NewResponseController(w).Flush())
	})

	assert.NotNil(t, sessionCookie(resp))
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	_, err := session.FromContext(context.Background())
	assert.ErrorIs(t, err, session.ErrSessionMissing)

	assert.PanicsWithValue(t, "session: not found in context", func() {
		session.MustFromContext(context.Background())
	})
}

func TestManager_FinalizeOnce(t *testing.T) {
	t.Parallel()

	m := setupManager(t, newFaultyStore())
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	state, err := m.Load(r.Context(), r)
	require.NoError(t, err)
	state.Set("a", 1)

	w := httptest.NewRecorder()
	d, err := m.Finalize(r.Context(), w, state)
	require.NoError(t, err)
	assert.Equal(t, session.ActionCreate, d.Action)
	assert.Equal(t, d.SessionID, state.ID())

	_, err = m.Finalize(r.Context(), w, state)
	assert.ErrorIs(t, err, session.ErrSessionFinalized)

	_, err = m.Finalize(r.Context(), w, nil)
	assert.ErrorIs(t, err, session.ErrSessionMissing)
}

func TestManager_IDGenerationFailure(t *testing.T) {
	t.Parallel()

	store := newFaultyStore()
	m := setupManager(t, store, session.WithIDGenerator(func() (string, error) {
		return "", fmt.Errorf("%w: no entropy", session.ErrIDGeneration)
	}))

	resp := serve(t, m, setUser)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Zero(t, store.sets.Load())
}
