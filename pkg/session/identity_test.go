package session_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const (
	testSecret    = "0123456789abcdef0123456789abcdef"
	testOldSecret = "fedcba9876543210fedcba9876543210"
)

func TestGenerateID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id, err := session.GenerateID()
		require.NoError(t, err)
		require.Len(t, id, 32)

		raw, err := base64.RawURLEncoding.DecodeString(id)
		require.NoError(t, err)
		assert.Len(t, raw, 24)

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	signed := session.Sign("abc", testSecret)
	assert.Equal(t, signed, session.Sign("abc", testSecret))

	id, ok := session.Verify(signed, []string{testSecret})
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	t.Run("rotation", func(t *testing.T) {
		old := session.Sign("abc", testOldSecret)
		id, ok := session.Verify(old, []string{testSecret, testOldSecret})
		assert.True(t, ok)
		assert.Equal(t, "abc", id)

		_, ok = session.Verify(old, []string{testSecret})
		assert.False(t, ok)
	})

	t.Run("tampered", func(t *testing.T) {
		for _, v := range []string{"", "abc", "abc.", ".tag", "abd" + signed[3:]} {
			_, ok := session.Verify(v, []string{testSecret})
			assert.False(t, ok, v)
		}
	})
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	_, err := session.NewIdentity("", "")
	assert.ErrorIs(t, err, session.ErrConfig)

	old, err := session.NewIdentity(testOldSecret)
	require.NoError(t, err)
	current, err := session.NewIdentity(testSecret, testOldSecret)
	require.NoError(t, err)

	id, ok := current.Verify(old.Sign("sid"))
	assert.True(t, ok)
	assert.Equal(t, "sid", id)

	_, ok = old.Verify(current.Sign("sid"))
	assert.False(t, ok)
}
