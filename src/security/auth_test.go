package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-1234")

	token, err := svc.GenerateToken(42, time.Hour)
	require.NoError(t, err)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.EqualValues(t, 42, userID)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService("issuer-secret-that-is-long-enough-12")
	verifier := NewAuthService("different-secret-that-is-long-enough")

	token, err := issuer.GenerateToken(42, time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-1234")

	token, err := svc.GenerateToken(42, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-1234")
	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
}
