package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/repository"
	"github.com/mindcare/mindcare-go/internal/service"
	"go.uber.org/zap"
)

// AdminHandler 管理端处理器
type AdminHandler struct {
	userRepo      *repository.UserRepository
	chatRepo      *repository.ChatRepository
	emotionRepo   *repository.EmotionRepository
	alertRepo     *repository.AlertRepository
	notifyService *service.NotifyService
	logger        *zap.Logger
}

// NewAdminHandler 创建管理端处理器
func NewAdminHandler(
	userRepo *repository.UserRepository,
	chatRepo *repository.ChatRepository,
	emotionRepo *repository.EmotionRepository,
	alertRepo *repository.AlertRepository,
	notifyService *service.NotifyService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		userRepo:      userRepo,
		chatRepo:      chatRepo,
		emotionRepo:   emotionRepo,
		alertRepo:     alertRepo,
		notifyService: notifyService,
		logger:        logger,
	}
}

// Overview 平台概览：用户、会话、预警与近 30 天情绪分布
func (h *AdminHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	usersByRole, err := h.userRepo.CountByRole(ctx)
	if err != nil {
		h.logger.Error("统计用户失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được thống kê"})
		return
	}

	sessions, messages, err := h.chatRepo.CountTotals(ctx)
	if err != nil {
		h.logger.Error("统计会话失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được thống kê"})
		return
	}

	alertsBySeverity, err := h.alertRepo.CountActiveBySeverity(ctx)
	if err != nil {
		h.logger.Error("统计预警失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được thống kê"})
		return
	}

	emotionDist, err := h.emotionRepo.DistributionSince(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		h.logger.Error("统计情绪分布失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được thống kê"})
		return
	}

	c.JSON(200, gin.H{
		"success": true,
		"data": gin.H{
			"users_by_role":      usersByRole,
			"total_sessions":     sessions,
			"total_messages":     messages,
			"active_alerts":      alertsBySeverity,
			"emotion_last_30d":   emotionDist,
			"online_doctors":     h.notifyService.GetOnlineCount(),
		},
	})
}

// SetUserActive 启用或停用账号
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"success": false, "error": "ID người dùng không hợp lệ"})
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Thiếu trạng thái tài khoản"})
		return
	}

	if err := h.userRepo.SetActive(c.Request.Context(), userID, *req.Active); err != nil {
		h.logger.Error("更新账号状态失败", zap.Int64("userId", userID), zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Cập nhật trạng thái thất bại"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}
