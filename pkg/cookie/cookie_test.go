package cookie_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

const (
	secretA = "this-is-a-very-long-secret-key-32-chars-long"
	secretB = "this-is-old-very-long-secret-key-32-chars-ok"
)

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		secrets []string
		wantErr error
	}{
		{"no secrets", []string{}, cookie.ErrNoSecret},
		{"empty secrets", []string{"", ""}, cookie.ErrNoSecret},
		{"secret too short", []string{"short"}, cookie.ErrSecretTooShort},
		{"valid secret", []string{secretA}, nil},
		{"multiple secrets with rotation", []string{secretA, secretB}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := cookie.New(tt.secrets)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	values := []string{"abc", "with.dots.inside", "x", "tDk6pXq1HcV0mW8rBvTnK2sLgYd3FqZa"}
	for _, v := range values {
		signed := cookie.Sign(v, secretA)
		got, err := cookie.Verify(signed, []string{secretA})
		if err != nil {
			t.Fatalf("Verify(%q) error = %v", signed, err)
		}
		if got != v {
			t.Errorf("Verify() = %q, want %q", got, v)
		}
	}
}

func TestSign_Deterministic(t *testing.T) {
	t.Parallel()

	if cookie.Sign("abc", secretA) != cookie.Sign("abc", secretA) {
		t.Error("Sign() is not deterministic")
	}
	if cookie.Sign("abc", secretA) == cookie.Sign("abc", secretB) {
		t.Error("Sign() ignores the secret")
	}
}

func TestVerify_Rotation(t *testing.T) {
	t.Parallel()

	signed := cookie.Sign("sid-1", secretA)

	got, err := cookie.Verify(signed, []string{secretB, secretA})
	if err != nil || got != "sid-1" {
		t.Fatalf("Verify() with old secret in list = %q, %v", got, err)
	}

	if _, err := cookie.Verify(signed, []string{secretB}); !errors.Is(err, cookie.ErrInvalidSignature) {
		t.Errorf("Verify() without signing secret error = %v, want %v", err, cookie.ErrInvalidSignature)
	}
}

func TestVerify_Invalid(t *testing.T) {
	t.Parallel()

	signed := cookie.Sign("sid-1", secretA)
	last := "A"
	if strings.HasSuffix(signed, last) {
		last = "B"
	}
	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{"empty", "", cookie.ErrInvalidFormat},
		{"no separator", "sid-1", cookie.ErrInvalidFormat},
		{"empty value", "." + strings.SplitN(signed, ".", 2)[1], cookie.ErrInvalidFormat},
		{"empty tag", "sid-1.", cookie.ErrInvalidFormat},
		{"tampered value", "sid-2" + signed[len("sid-1"):], cookie.ErrInvalidSignature},
		{"tampered tag", signed[:len(signed)-1] + last, cookie.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := cookie.Verify(tt.value, []string{secretA})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_SetGetSigned(t *testing.T) {
	t.Parallel()
	m, err := cookie.New([]string{secretA})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	if err := m.SetSigned(w, "SID", "test-value"); err != nil {
		t.Fatalf("SetSigned() error = %v", err)
	}

	r := &http.Request{Header: http.Header{}}
	r.Header.Set("Cookie", w.Header().Get("Set-Cookie"))

	got, err := m.GetSigned(r, "SID")
	if err != nil {
		t.Fatalf("GetSigned() error = %v", err)
	}
	if got != "test-value" {
		t.Errorf("GetSigned() = %q, want %q", got, "test-value")
	}
}

func TestManager_GetMissing(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{secretA})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := m.GetSigned(r, "SID"); !errors.Is(err, cookie.ErrCookieNotFound) {
		t.Errorf("GetSigned() error = %v, want %v", err, cookie.ErrCookieNotFound)
	}
}

func TestManager_Options(t *testing.T) {
	t.Parallel()
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	m, _ := cookie.New([]string{secretA}, cookie.WithPath("/app"))

	w := httptest.NewRecorder()
	_ = m.Set(w, "SID", "v",
		cookie.WithDomain("example.com"),
		cookie.WithMaxAge(86400),
		cookie.WithExpires(expires),
		cookie.WithSecure(true),
	)

	header := w.Header().Get("Set-Cookie")
	for _, want := range []string{
		"SID=v",
		"Path=/app",
		"Domain=example.com",
		"Max-Age=86400",
		"Expires=" + expires.Format(http.TimeFormat),
		"HttpOnly",
		"Secure",
		"SameSite=Lax",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("Set-Cookie %q does not contain %q", header, want)
		}
	}
}

func TestManager_Invalidate(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{secretA})

	w := httptest.NewRecorder()
	m.Invalidate(w, "SID")

	header := w.Header().Get("Set-Cookie")
	if !strings.HasPrefix(header, "SID="+cookie.InvalidatedValue) {
		t.Errorf("Set-Cookie = %q, want invalidated marker", header)
	}
	if !strings.Contains(header, "Expires="+time.Unix(0, 0).UTC().Format(http.TimeFormat)) {
		t.Errorf("Set-Cookie = %q, want epoch Expires", header)
	}
	if !strings.Contains(header, "Max-Age=0") {
		t.Errorf("Set-Cookie = %q, want Max-Age=0", header)
	}
}

func TestManager_Secrets(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{"", secretA, secretB})

	got := m.Secrets()
	if len(got) != 2 || got[0] != secretA || got[1] != secretB {
		t.Fatalf("Secrets() = %v", got)
	}

	got[0] = "mutated"
	if m.Secrets()[0] != secretA {
		t.Error("Secrets() exposes internal slice")
	}
}
