package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/service"
)

// ContextUserKey 当前用户在 gin 上下文中的键
const ContextUserKey = "currentUser"

// JWTAuth 认证中间件：校验 Bearer 令牌并把用户放进上下文。
// 角色只认服务端令牌里的声明，不信任任何客户端字段。
func JWTAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Yêu cầu đăng nhập",
			})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Phiên đăng nhập không hợp lệ hoặc đã hết hạn",
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireRoles 角色校验中间件，需在 JWTAuth 之后使用
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !allowed[user.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Bạn không có quyền truy cập",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser 从上下文取当前用户，未认证时返回 nil
func CurrentUser(c *gin.Context) *model.User {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// extractToken 支持 Authorization 头与 WebSocket 握手的 token 查询参数
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
