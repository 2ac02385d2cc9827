// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	id := uuid.New().String()
	token, err := CreateToken(id)
	require.NoError(t, err)

	sub, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, sub)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	require.NoError(t, Init())
	_, err := VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init())
	token, err := CreateToken(uuid.New().String())
	require.NoError(t, err)

	// A restart regenerates the key pair; old tokens must die with it.
	require.NoError(t, Init())
	_, err = VerifyToken(token)
	assert.Error(t, err)
}
