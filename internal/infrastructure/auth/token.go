// Package auth 校验站点签发的访问令牌与刷新令牌
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wacana/backend/internal/infrastructure/config"
)

// refreshLeeway 刷新令牌校验时允许的时钟偏差
const refreshLeeway = 30 * time.Second

var (
	// ErrTokenExpired 令牌已过期
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid 令牌签名或格式无效
	ErrTokenInvalid = errors.New("invalid token")
	// ErrNoSecret 未配置密钥，无法校验
	ErrNoSecret = errors.New("jwt secret not configured")
)

// Claims 令牌载荷
type Claims struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	AuthProvider string `json:"authProvider"`
	jwt.RegisteredClaims
}

// UserID 用户 ID，优先 id 字段，其次 sub
func (c *Claims) UserID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Subject
}

// TokenVerifier 令牌校验器
type TokenVerifier struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewTokenVerifier 创建令牌校验器
// 刷新令牌密钥未配置时沿用 JWTSecret + "_refresh"
func NewTokenVerifier(cfg *config.AuthConfig) *TokenVerifier {
	v := &TokenVerifier{}
	if cfg == nil || cfg.JWTSecret == "" {
		return v
	}
	v.accessSecret = []byte(cfg.JWTSecret)
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.JWTSecret + "_refresh"
	}
	v.refreshSecret = []byte(refresh)
	return v
}

// VerifyAccess 校验访问令牌
func (v *TokenVerifier) VerifyAccess(token string) (*Claims, error) {
	return v.verify(token, v.accessSecret)
}

// VerifyRefresh 校验刷新令牌（允许少量时钟偏差）
func (v *TokenVerifier) VerifyRefresh(token string) (*Claims, error) {
	return v.verify(token, v.refreshSecret, jwt.WithLeeway(refreshLeeway))
}

func (v *TokenVerifier) verify(token string, secret []byte, opts ...jwt.ParserOption) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}

	opts = append(opts, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.UserID() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}
