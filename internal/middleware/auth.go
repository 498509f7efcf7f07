// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filedock-go/internal/repository"
	"filedock-go/pkg/log"
	"filedock-go/pkg/token"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它从请求头中提取 token，验证签名与会话有效性，
// 并将完整的 User 对象存入 Gin 的上下文中。
// 会话检查保证注销后的 token 立即失效，即使它本身尚未过期。
func AuthMiddleware(jwtManager *token.JWTManager, sessionRepo repository.SessionRepository, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权头"})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的授权头格式"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的 token"})
			return
		}

		// 会话可能已被注销删除；基础设施错误不能伪装成注销
		ok, err := sessionRepo.Exists(c.Request.Context(), claims.SessionID)
		if err != nil {
			log.Error("会话检查失败", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "服务内部错误"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "登录已失效"})
			return
		}

		// 使用 claims 中的用户 id 从数据库获取完整的用户信息
		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			// 如果根据 token 中的用户信息无法找到用户，说明该用户可能已被删除
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户不存在"})
			return
		}

		// 将完整的 User 对象存储在 context 中，供后续处理函数使用
		c.Set("user", user)
		c.Set("claims", claims)

		c.Next()
	}
}
