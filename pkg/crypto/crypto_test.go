package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("CorrectHorse1!")
	require.NoError(t, err)
	require.NotEqual(t, "CorrectHorse1!", hash)

	assert.True(t, VerifyPassword(hash, "CorrectHorse1!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken(InvitationTokenBytes)
	require.NoError(t, err)
	second, err := GenerateToken(InvitationTokenBytes)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	// 16 bytes base64url-encoded without padding is 22 characters.
	assert.Len(t, first, 22)
}
