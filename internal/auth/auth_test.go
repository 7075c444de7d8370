package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("secret")
	require.NoError(t, err)
	h2, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("secret", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	sessions, err := NewSessions(time.Hour)
	require.NoError(t, err)

	playerID := uuid.New()
	token, err := sessions.Issue(playerID)
	require.NoError(t, err)

	got, err := sessions.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, playerID, got)
}

func TestSessionTokenFromOtherKeyRejected(t *testing.T) {
	a, err := NewSessions(0)
	require.NoError(t, err)
	b, err := NewSessions(0)
	require.NoError(t, err)

	token, err := a.Issue(uuid.New())
	require.NoError(t, err)

	_, err = b.Verify(token)
	assert.Error(t, err)
}

func TestSessionGarbageTokenRejected(t *testing.T) {
	sessions, err := NewSessions(0)
	require.NoError(t, err)
	_, err = sessions.Verify("garbage")
	assert.Error(t, err)
}
