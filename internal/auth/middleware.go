package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oaflow/workflow-gin/internal/model"
)

// gin 上下文中的身份键
const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
	ContextUserRole = "user_role"
)

// IdentityMiddleware 身份中间件
// 优先从 Authorization: Bearer 头解析令牌;allowDevHeader 打开时
// (仅限非生产环境)允许用 X-User-ID/X-User-Role 头直接指定身份
func IdentityMiddleware(validator *TokenValidator, allowDevHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := validator.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    http.StatusUnauthorized,
					"message": "invalid token",
					"detail":  err.Error(),
				})
				return
			}
			c.Set(ContextUserID, claims.Sub)
			c.Set(ContextUserName, claims.Name)
			c.Set(ContextUserRole, normalizeRole(claims.Role))
			c.Next()
			return
		}

		if allowDevHeader {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				c.Set(ContextUserID, userID)
				c.Set(ContextUserRole, normalizeRole(c.GetHeader("X-User-Role")))
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "missing credentials",
		})
	}
}

// UserID 从上下文获取当前用户 ID
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// UserRole 从上下文获取当前用户角色
func UserRole(c *gin.Context) string {
	return c.GetString(ContextUserRole)
}

// normalizeRole 未知角色一律降级为普通用户
func normalizeRole(role string) string {
	switch role {
	case model.RoleAdmin, model.RoleLeader:
		return role
	default:
		return model.RoleUser
	}
}
