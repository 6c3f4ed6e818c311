// Package security 提供管理接口使用的 JWT 签发与校验
package security

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lk2023060901/cardforge/pkg/config"
)

// JWTConfig JWT 配置，只支持 HMAC 对称算法
type JWTConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	// 签名算法：HS256, HS384, HS512
	Algorithm   string        `mapstructure:"algorithm"`
	ExpiresIn   time.Duration `mapstructure:"expires_in"`
	Issuer      string        `mapstructure:"issuer"`
	TokenPrefix string        `mapstructure:"token_prefix"`
	HeaderName  string        `mapstructure:"header_name"`
}

// DefaultJWTConfig 返回默认 JWT 配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Algorithm:   "HS256",
		ExpiresIn:   24 * time.Hour,
		Issuer:      "cardforge",
		TokenPrefix: "Bearer ",
		HeaderName:  "Authorization",
	}
}

// Claims 管理员令牌载荷
type Claims struct {
	jwt.RegisteredClaims

	AdminID  int64    `json:"admin_id"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// HasRole 是否拥有指定角色
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// JWTManager JWT 管理器
type JWTManager struct {
	config *JWTConfig
	method jwt.SigningMethod
}

// NewJWTManager 创建 JWT 管理器
func NewJWTManager(cfg *JWTConfig) (*JWTManager, error) {
	merged, err := config.MergeConfig(DefaultJWTConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if merged.SecretKey == "" {
		return nil, ErrSecretKeyEmpty
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(merged.Algorithm) {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmInvalid, merged.Algorithm)
	}

	return &JWTManager{config: merged, method: method}, nil
}

// GetConfig 获取配置
func (m *JWTManager) GetConfig() *JWTConfig {
	return m.config
}

// GenerateToken 为管理员签发 Token
func (m *JWTManager) GenerateToken(adminID int64, username string, roles ...string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(adminID, 10),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.ExpiresIn)),
		},
		AdminID:  adminID,
		Username: username,
		Roles:    roles,
	}
	return jwt.NewWithClaims(m.method, claims).SignedString([]byte(m.config.SecretKey))
}

// ValidateToken 验证 Token，允许带 TokenPrefix
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, m.config.TokenPrefix))
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != m.method.Alg() {
			return nil, ErrAlgorithmMismatch
		}
		return []byte(m.config.SecretKey), nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func wrapError(err error) error {
	switch {
	case errors.Is(err, ErrAlgorithmMismatch):
		return ErrAlgorithmMismatch
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotValidYet
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
