package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("same")
	require.NoError(t, err)
	h2, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("pw", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestTokenRoundTrip(t *testing.T) {
	tokens, err := NewTokens()
	require.NoError(t, err)

	userID := uuid.New()
	tok, err := tokens.Issue(userID)
	require.NoError(t, err)

	got, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenRejectsForeignKey(t *testing.T) {
	a, err := NewTokens()
	require.NoError(t, err)
	b, err := NewTokens()
	require.NoError(t, err)

	tok, err := a.Issue(uuid.New())
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.Error(t, err)
}

func TestNewTokensRejectsBadExpireTime(t *testing.T) {
	t.Setenv("TOKEN_EXPIRE_TIME", "soon")
	_, err := NewTokens()
	assert.Error(t, err)
}
