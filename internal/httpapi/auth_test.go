package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	token, err := mintSessionToken(secret, time.Now())
	require.NoError(t, err)
	assert.True(t, validSessionToken(secret, token))
}

func TestSessionToken_WrongSecretRejected(t *testing.T) {
	token, err := mintSessionToken([]byte("0123456789abcdef0123456789abcdef"), time.Now())
	require.NoError(t, err)
	assert.False(t, validSessionToken([]byte("ffffffffffffffffffffffffffffffff"), token))
}

func TestSessionToken_ExpiredRejected(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	token, err := mintSessionToken(secret, time.Now().Add(-sessionLifetime-time.Hour))
	require.NoError(t, err)
	assert.False(t, validSessionToken(secret, token))
}

func TestSessionToken_GarbageRejected(t *testing.T) {
	assert.False(t, validSessionToken([]byte("0123456789abcdef0123456789abcdef"), "not-a-token"))
}
