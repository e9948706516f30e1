package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/model"
	"go.uber.org/zap"
)

// ContextRemainingKey 剩余额度在 gin 上下文中的键
const ContextRemainingKey = "remainingChats"

// PlanStore 套餐查询接口
type PlanStore interface {
	GetByName(ctx context.Context, name string) (*model.Plan, error)
}

// UsageCounter 用量统计接口
type UsageCounter interface {
	CountSessionsSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// ChatQuota 聊天额度中间件：按套餐限制每月会话数，需在 JWTAuth 之后使用。
// chat_limit 为 -1 表示不限量，医生与管理员不计额度。
func ChatQuota(plans PlanStore, usage UsageCounter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Yêu cầu đăng nhập",
			})
			return
		}
		if user.Role != model.RoleUser {
			c.Set(ContextRemainingKey, "unlimited")
			c.Next()
			return
		}

		plan, err := plans.GetByName(c.Request.Context(), user.SubscriptionPlan)
		if err != nil {
			// 套餐缺失按免费档处理，不阻塞用户
			logger.Warn("查询套餐失败，按免费档处理",
				zap.Int64("userId", user.ID),
				zap.String("plan", user.SubscriptionPlan),
				zap.Error(err))
			plan = &model.Plan{Name: model.PlanFree, ChatLimit: 10}
		}

		if plan.ChatLimit < 0 {
			c.Set(ContextRemainingKey, "unlimited")
			c.Next()
			return
		}

		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		used, err := usage.CountSessionsSince(c.Request.Context(), user.ID, monthStart)
		if err != nil {
			logger.Error("统计用量失败", zap.Int64("userId", user.ID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Hệ thống đang bận, vui lòng thử lại sau",
			})
			return
		}

		if used >= plan.ChatLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Bạn đã dùng hết lượt trò chuyện trong tháng. Nâng cấp gói để tiếp tục.",
				"plan":    plan.Name,
				"limit":   plan.ChatLimit,
			})
			return
		}

		c.Set(ContextRemainingKey, plan.ChatLimit-used)
		c.Next()
	}
}
