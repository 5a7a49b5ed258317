// Package cookie signs values with HMAC-SHA256 and writes them as HTTP
// cookies with a shared set of default attributes.
//
// # Signing
//
// Sign appends a keyed integrity tag to a value; Verify checks a signed value
// against an ordered list of secrets and returns the original value on the
// first match. The first secret is the one new values are signed with, older
// secrets stay in the list while cookies signed with them are still in
// circulation:
//
//	signed := cookie.Sign("abc", newSecret)
//	v, err := cookie.Verify(signed, []string{newSecret, oldSecret})
//
// Signing detects tampering, it does not hide the value.
//
// # Manager
//
// Manager bundles the secrets with default attributes (Path "/", HttpOnly,
// SameSite=Lax unless overridden):
//
//	man, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")}, cookie.WithSecure(true))
//	if err != nil { log.Fatal(err) }
//
//	_ = man.SetSigned(w, "SID", id, cookie.WithMaxAge(3600))
//	id, err := man.GetSigned(r, "SID")
//	man.Invalidate(w, "SID")
//
// Invalidate writes the InvalidatedValue marker together with an Expires
// attribute at the Unix epoch.
//
// # Error Handling
//
// Sentinel errors (ErrNoSecret, ErrSecretTooShort, ErrInvalidSignature,
// ErrInvalidFormat, ErrCookieNotFound) can be matched with errors.Is.
package cookie
