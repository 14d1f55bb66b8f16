package auth

import (
	"testing"
	"time"

	autherrors "go-leave/internal/auth/errors"

	"github.com/stretchr/testify/assert"
)

func TestTokenIssuer(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	issuer, err := NewTokenIssuer("test-secret", "go-leave", 8*time.Hour, clock)
	assert.NoError(t, err)

	token, exp, err := issuer.Issue("alice", "sid-1", now)
	assert.NoError(t, err)
	assert.Equal(t, now.Add(8*time.Hour), exp)

	t.Run("round trip", func(t *testing.T) {
		claims, err := issuer.Parse(token)
		assert.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.Equal(t, "sid-1", claims.SessionID)
	})

	t.Run("negative expired", func(t *testing.T) {
		later, _ := NewTokenIssuer("test-secret", "go-leave", 8*time.Hour, func() time.Time { return now.Add(9 * time.Hour) })
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, autherrors.ErrTokenExpired)
	})

	t.Run("negative other secret", func(t *testing.T) {
		other, _ := NewTokenIssuer("another-secret", "go-leave", 8*time.Hour, clock)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("negative garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("negative empty secret", func(t *testing.T) {
		_, err := NewTokenIssuer("", "go-leave", time.Hour, nil)
		assert.ErrorIs(t, err, autherrors.ErrMisconfigured)
	})
}

func TestVerifySecret(t *testing.T) {
	hash, err := bcryptHash(t, "pw")
	assert.NoError(t, err)

	ok, legacy := verifySecret(hash, "pw")
	assert.True(t, ok)
	assert.False(t, legacy)

	ok, _ = verifySecret(hash, "nope")
	assert.False(t, ok)

	ok, legacy = verifySecret("plain", "plain")
	assert.True(t, ok)
	assert.True(t, legacy)

	ok, _ = verifySecret("plain", "plain2")
	assert.False(t, ok)
}
