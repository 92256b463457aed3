package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifierValid(t *testing.T) {
	v := NewJWTVerifier("test-secret")

	token, err := v.Sign("alice", time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
}

func TestJWTVerifierExpired(t *testing.T) {
	v := NewJWTVerifier("test-secret")

	token, err := v.Sign("alice", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifierWrongSecret(t *testing.T) {
	signer := NewJWTVerifier("secret-a")
	v := NewJWTVerifier("secret-b")

	token, err := signer.Sign("alice", time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifierRejectsUnexpectedAlgorithm(t *testing.T) {
	// Token signed with "none" must be rejected even with a valid subject.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "mallory",
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	v := NewJWTVerifier("test-secret")
	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifierMissingSubject(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifierEmptyAndGarbage(t *testing.T) {
	v := NewJWTVerifier("test-secret")

	_, err := v.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("not.a.jwt")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNoopVerifier(t *testing.T) {
	v := NewNoopVerifier()

	id, err := v.Verify("bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", id.Username)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
