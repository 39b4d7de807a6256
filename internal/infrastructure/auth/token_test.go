package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wacana/backend/internal/infrastructure/config"
)

func sign(t *testing.T, secret string, id string, expiresIn time.Duration) string {
	t.Helper()
	claims := &Claims{
		ID:    id,
		Email: id + "@uksw.edu",
		Role:  "student",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestTokenVerifier_Access(t *testing.T) {
	v := NewTokenVerifier(&config.AuthConfig{JWTSecret: "s3cret"})

	claims, err := v.VerifyAccess(sign(t, "s3cret", "u-1", time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())

	_, err = v.VerifyAccess(sign(t, "s3cret", "u-1", -time.Minute))
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = v.VerifyAccess(sign(t, "other", "u-1", time.Minute))
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = v.VerifyAccess("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenVerifier_RefreshUsesDerivedSecret(t *testing.T) {
	v := NewTokenVerifier(&config.AuthConfig{JWTSecret: "s3cret"})

	claims, err := v.VerifyRefresh(sign(t, "s3cret_refresh", "u-2", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "u-2", claims.UserID())

	// 访问令牌密钥不能用于刷新令牌
	_, err = v.VerifyRefresh(sign(t, "s3cret", "u-2", time.Hour))
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// 偏差范围内仍然有效
	_, err = v.VerifyRefresh(sign(t, "s3cret_refresh", "u-2", -10*time.Second))
	assert.NoError(t, err)
}

func TestTokenVerifier_SubjectFallback(t *testing.T) {
	v := NewTokenVerifier(&config.AuthConfig{JWTSecret: "k"})

	claims := jwt.RegisteredClaims{
		Subject:   "u-sub",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	got, err := v.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "u-sub", got.UserID())
}

func TestTokenVerifier_NoSecret(t *testing.T) {
	v := NewTokenVerifier(&config.AuthConfig{})
	_, err := v.VerifyAccess("x")
	assert.ErrorIs(t, err, ErrNoSecret)
}
