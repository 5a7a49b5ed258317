package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// CookieTransport implements Transport using a signed cookie
type CookieTransport struct {
	cookieMgr  *cookie.Manager
	cookieName string
	identity   *Identity
	options    []cookie.Option
}

// NewCookieTransport creates a cookie transport. Values are signed with the
// manager's first secret and verified against all of them.
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string, opts ...cookie.Option) *CookieTransport {
	return &CookieTransport{
		cookieMgr:  cookieMgr,
		cookieName: cookieName,
		identity:   &Identity{secrets: cookieMgr.Secrets()},
		options:    opts,
	}
}

// ReadID verifies the session cookie. Absent, malformed and unverifiable
// cookies all yield false.
func (t *CookieTransport) ReadID(r *http.Request) (string, bool) {
	value, err := t.cookieMgr.Get(r, t.cookieName)
	if err != nil || value == "" {
		return "", false
	}
	return t.identity.Verify(value)
}

// WriteID stores the signed id in the session cookie
func (t *CookieTransport) WriteID(w http.ResponseWriter, id string) error {
	return t.cookieMgr.Set(w, t.cookieName, t.identity.Sign(id), t.options...)
}

// ClearID invalidates the session cookie
func (t *CookieTransport) ClearID(w http.ResponseWriter) {
	t.cookieMgr.Invalidate(w, t.cookieName)
}
