package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// signatureSeparator joins the value and its tag. Values may contain the
// separator themselves, the tag never does.
const signatureSeparator = "."

// Sign returns value followed by an HMAC-SHA256 tag keyed with secret.
// The result is deterministic for a given (value, secret) pair.
func Sign(value, secret string) string {
	return value + signatureSeparator + tag(value, secret)
}

// Verify checks signed against every secret in order and returns the unsigned
// value on the first match. Secrets are ordered newest first so a rotated-out
// secret keeps verifying until it is removed from the list.
func Verify(signed string, secrets []string) (string, error) {
	idx := strings.LastIndex(signed, signatureSeparator)
	if idx <= 0 || idx == len(signed)-1 {
		return "", ErrInvalidFormat
	}

	value, signature := signed[:idx], signed[idx+1:]

	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		expected := tag(value, secret)
		if subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1 {
			return value, nil
		}
	}

	return "", ErrInvalidSignature
}

func tag(value, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
