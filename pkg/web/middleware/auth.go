package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/pkg/security"
	"github.com/lk2023060901/cardforge/pkg/web/errors"
)

// ClaimsKey Context 中存储 Claims 的 key
const ClaimsKey = "jwt_claims"

// AdminAuthorizer 判断令牌中的管理员是否仍然有效
type AdminAuthorizer func(adminID int64) bool

// Auth JWT 认证中间件，authorize 为空时只校验令牌
func Auth(m *security.JWTManager, authorize AdminAuthorizer) gin.HandlerFunc {
	header := m.GetConfig().HeaderName
	return func(c *gin.Context) {
		claims, err := m.ValidateToken(c.GetHeader(header))
		if err != nil {
			abortWithCode(c, errors.CodeUnauthorized, err.Error())
			return
		}
		if authorize != nil && !authorize(claims.AdminID) {
			abortWithCode(c, errors.CodeForbidden, "forbidden: not an administrator")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRoles 角色检查中间件（需要所有角色）
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			abortWithCode(c, errors.CodeUnauthorized, "unauthorized")
			return
		}
		for _, role := range roles {
			if !claims.HasRole(role) {
				abortWithCode(c, errors.CodeForbidden, "forbidden: insufficient roles")
				return
			}
		}
		c.Next()
	}
}

// GetClaims 从 Context 获取 Claims
func GetClaims(c *gin.Context) (*security.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*security.Claims)
	return claims, ok
}
