package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, err := svc.GenerateToken("u1", "Ada", "ada@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestJWTService_RejectsOtherSecret(t *testing.T) {
	token, err := NewJWTService("secret", time.Hour).GenerateToken("u1", "", "")
	require.NoError(t, err)

	_, err = NewJWTService("other", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := svc.GenerateToken("u1", "", "")
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RequiresSubject(t *testing.T) {
	_, err := NewJWTService("secret", time.Hour).GenerateToken("", "", "")
	assert.ErrorIs(t, err, ErrMissingSubject)
}
