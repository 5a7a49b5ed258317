package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"slices"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// idBytes is the amount of entropy in a generated id (192 bits).
const idBytes = 24

// IDGenerator produces fresh session ids.
type IDGenerator func() (string, error)

// GenerateID returns a random URL-safe id of 32 characters.
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrIDGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Sign returns id with a keyed integrity tag appended.
func Sign(id, secret string) string {
	return cookie.Sign(id, secret)
}

// Verify returns the unsigned id when any of secrets produced value. A false
// result means "no session", never an error: tampered, malformed and
// rotated-out values are all treated alike.
func Verify(value string, secrets []string) (string, bool) {
	id, err := cookie.Verify(value, secrets)
	if err != nil {
		return "", false
	}
	return id, true
}

// Identity signs and verifies session ids with an ordered set of secrets.
// The first secret signs; every secret verifies.
type Identity struct {
	secrets []string
}

// NewIdentity returns an Identity for secrets, newest first.
func NewIdentity(secrets ...string) (*Identity, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, errors.Join(ErrConfig, cookie.ErrNoSecret)
	}
	return &Identity{secrets: secrets}, nil
}

// Sign signs id with the newest secret.
func (i *Identity) Sign(id string) string {
	return Sign(id, i.secrets[0])
}

// Verify checks value against every secret in order.
func (i *Identity) Verify(value string) (string, bool) {
	return Verify(value, i.secrets)
}
