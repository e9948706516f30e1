package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/middleware"
	"github.com/mindcare/mindcare-go/internal/service"
	"go.uber.org/zap"
)

// AssistantHandler 就医助手处理器
type AssistantHandler struct {
	assistantService *service.AssistantService
	logger           *zap.Logger
}

// NewAssistantHandler 创建就医助手处理器
func NewAssistantHandler(assistantService *service.AssistantService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
		logger:           logger,
	}
}

// Ask 提问
func (h *AssistantHandler) Ask(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Thiếu nội dung câu hỏi"})
		return
	}

	answer, err := h.assistantService.Process(c.Request.Context(), user, req.Question)
	if err != nil {
		h.logger.Error("助手处理失败", zap.Int64("userId", user.ID), zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Trợ lý đang bận, vui lòng thử lại sau"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": gin.H{"answer": answer}})
}
