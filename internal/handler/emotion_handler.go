package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/middleware"
	"github.com/mindcare/mindcare-go/internal/risk"
	"github.com/mindcare/mindcare-go/internal/service"
	"go.uber.org/zap"
)

// EmotionHandler 情绪处理器
type EmotionHandler struct {
	emotionService *service.EmotionService
	policy         risk.Policy
	logger         *zap.Logger
}

// NewEmotionHandler 创建情绪处理器
func NewEmotionHandler(emotionService *service.EmotionService, policy risk.Policy, logger *zap.Logger) *EmotionHandler {
	return &EmotionHandler{
		emotionService: emotionService,
		policy:         policy,
		logger:         logger,
	}
}

// Analyze 对一段文本做风险判级，不落库
func (h *EmotionHandler) Analyze(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Thiếu nội dung cần phân tích"})
		return
	}

	assessment := h.policy.Classify(req.Text)
	c.JSON(200, gin.H{"success": true, "data": assessment})
}

// Log 手动记录情绪
func (h *EmotionHandler) Log(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req struct {
		Emotion   string `json:"emotion" binding:"required"`
		Intensity int    `json:"intensity"`
		Triggers  string `json:"triggers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Thông tin cảm xúc không hợp lệ"})
		return
	}

	log, err := h.emotionService.LogEmotion(c.Request.Context(), user.ID, req.Emotion, req.Intensity, req.Triggers)
	if err != nil {
		h.logger.Error("记录情绪失败", zap.Int64("userId", user.ID), zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Lưu cảm xúc thất bại"})
		return
	}

	c.JSON(201, gin.H{"success": true, "data": log})
}

// Stats 情绪统计，period 取 week/month/year
func (h *EmotionHandler) Stats(c *gin.Context) {
	user := middleware.CurrentUser(c)
	period := c.DefaultQuery("period", "week")

	stats, err := h.emotionService.Stats(c.Request.Context(), user.ID, period)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			c.JSON(400, gin.H{"success": false, "error": "Chu kỳ thống kê phải là week, month hoặc year"})
			return
		}
		h.logger.Error("查询情绪统计失败", zap.Int64("userId", user.ID), zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được thống kê cảm xúc"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": stats})
}
