package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, cfg *JWTConfig) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	return m
}

func TestNewJWTManager(t *testing.T) {
	_, err := NewJWTManager(&JWTConfig{})
	assert.ErrorIs(t, err, ErrSecretKeyEmpty)

	_, err = NewJWTManager(&JWTConfig{SecretKey: "s", Algorithm: "RS256"})
	assert.ErrorIs(t, err, ErrAlgorithmInvalid)

	m := newManager(t, &JWTConfig{SecretKey: "s"})
	assert.Equal(t, "HS256", m.GetConfig().Algorithm)
	assert.Equal(t, "Bearer ", m.GetConfig().TokenPrefix)
}

func TestGenerateAndValidate(t *testing.T) {
	m := newManager(t, &JWTConfig{SecretKey: "secret"})

	token, err := m.GenerateToken(42, "alice", "admin")
	require.NoError(t, err)

	claims, err := m.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AdminID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "cardforge", claims.Issuer)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("owner"))
}

func TestValidateTokenErrors(t *testing.T) {
	m := newManager(t, &JWTConfig{SecretKey: "secret"})
	other := newManager(t, &JWTConfig{SecretKey: "other"})
	hs512 := newManager(t, &JWTConfig{SecretKey: "secret", Algorithm: "HS512"})
	expired := newManager(t, &JWTConfig{SecretKey: "secret", ExpiresIn: -time.Minute})

	foreign, err := other.GenerateToken(1, "")
	require.NoError(t, err)
	mismatched, err := hs512.GenerateToken(1, "")
	require.NoError(t, err)
	stale, err := expired.GenerateToken(1, "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "Bearer ", ErrTokenMissing},
		{"malformed", "not-a-token", ErrTokenMalformed},
		{"wrong secret", foreign, ErrSignatureInvalid},
		{"wrong algorithm", mismatched, ErrAlgorithmMismatch},
		{"expired", stale, ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	m := newManager(t, &JWTConfig{SecretKey: "secret"})
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{AdminID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}
