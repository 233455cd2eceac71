package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 身份令牌声明
// 会话/登录由外部网关负责,本服务只验证网关签发的令牌
type Claims struct {
	Sub  string `json:"sub"`  // 用户 ID
	Name string `json:"name"` // 显示名称
	Role string `json:"role"` // user / leader / admin
	jwt.RegisteredClaims
}

// TokenValidator HS256 令牌验证器
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator 创建令牌验证器
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// ValidateToken 验证令牌并返回声明
func (v *TokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("jwt secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Sub == "" {
		return nil, errors.New("missing sub claim")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}

	return claims, nil
}

// SignToken 签发令牌,主要供测试和本地联调使用
func (v *TokenValidator) SignToken(sub, name, role string, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}

	claims := &Claims{
		Sub:  sub,
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
