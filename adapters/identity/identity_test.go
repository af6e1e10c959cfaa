package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portgen/pkg/apperror"
	jwtauth "github.com/khoahotran/portgen/pkg/auth"
)

type fakeIDVerifier struct {
	token *auth.Token
	err   error
}

func (f fakeIDVerifier) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseVerifier_ExtractsClaims(t *testing.T) {
	v := &FirebaseVerifier{client: fakeIDVerifier{token: &auth.Token{
		UID:    "u1",
		Claims: map[string]interface{}{"name": "Ada", "email": "ada@example.com"},
	}}}

	p, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Ada", p.DisplayName)
	assert.Equal(t, "ada@example.com", p.Email)
}

func TestFirebaseVerifier_Rejects(t *testing.T) {
	v := &FirebaseVerifier{client: fakeIDVerifier{err: errors.New("expired")}}

	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestJWTVerifier(t *testing.T) {
	svc := jwtauth.NewJWTService("secret", time.Hour)
	token, err := svc.GenerateToken("u1", "Ada", "ada@example.com")
	require.NoError(t, err)

	v := NewJWTVerifier(svc)
	p, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Ada", p.DisplayName)

	_, err = v.Verify(context.Background(), token+"x")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
