package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/middleware"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/service"
	"go.uber.org/zap"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// SendMessage 发送消息
func (h *ChatHandler) SendMessage(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Nội dung tin nhắn không hợp lệ"})
		return
	}

	resp, err := h.chatService.SendMessage(c.Request.Context(), user, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(400, gin.H{"success": false, "error": "Tin nhắn không được để trống"})
		case errors.Is(err, service.ErrMessageTooLong):
			c.JSON(400, gin.H{"success": false, "error": "Tin nhắn vượt quá 500 ký tự"})
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(404, gin.H{"success": false, "error": "Không tìm thấy cuộc trò chuyện"})
		case errors.Is(err, service.ErrSessionBusy):
			c.JSON(409, gin.H{"success": false, "error": "Tin nhắn trước đang được xử lý, vui lòng đợi"})
		default:
			h.logger.Error("发送消息失败", zap.Int64("userId", user.ID), zap.Error(err))
			c.JSON(500, gin.H{"success": false, "error": "Gửi tin nhắn thất bại, vui lòng thử lại"})
		}
		return
	}

	if remaining, ok := c.Get(middleware.ContextRemainingKey); ok {
		resp.RemainingChats = remaining
	}

	c.JSON(200, resp)
}

// ListSessions 查询最近会话
func (h *ChatHandler) ListSessions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	sessions, err := h.chatService.GetUserSessions(c.Request.Context(), user.ID, limit)
	if err != nil {
		h.logger.Error("查询会话列表失败", zap.Int64("userId", user.ID), zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được danh sách trò chuyện"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": sessions})
}

// GetMessages 查询会话消息
func (h *ChatHandler) GetMessages(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"success": false, "error": "ID cuộc trò chuyện không hợp lệ"})
		return
	}

	messages, err := h.chatService.GetSessionMessages(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		c.JSON(404, gin.H{"success": false, "error": "Không tìm thấy cuộc trò chuyện"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": messages})
}

// DeleteSession 删除会话
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"success": false, "error": "ID cuộc trò chuyện không hợp lệ"})
		return
	}

	if err := h.chatService.DeleteSession(c.Request.Context(), user.ID, sessionID); err != nil {
		c.JSON(404, gin.H{"success": false, "error": "Không tìm thấy cuộc trò chuyện"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// ArchiveSession 归档会话
func (h *ChatHandler) ArchiveSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"success": false, "error": "ID cuộc trò chuyện không hợp lệ"})
		return
	}

	if err := h.chatService.ArchiveSession(c.Request.Context(), user.ID, sessionID); err != nil {
		c.JSON(404, gin.H{"success": false, "error": "Không tìm thấy cuộc trò chuyện"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// EmergencyResources 紧急求助资源（无需登录）
func (h *ChatHandler) EmergencyResources(c *gin.Context) {
	c.JSON(200, gin.H{"success": true, "data": service.EmergencyResources()})
}
