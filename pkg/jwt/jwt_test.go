package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-0123456789"

func TestRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, secret, time.Hour)
	require.NoError(t, err)

	id, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestParseRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken(7, secret, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, "another-secret-000000")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken(7, secret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("not-a-token", secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
