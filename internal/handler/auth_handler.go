package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/middleware"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/service"
	"go.uber.org/zap"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register 注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Thông tin đăng ký không hợp lệ"})
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(409, gin.H{"success": false, "error": "Email đã được đăng ký"})
			return
		}
		h.logger.Error("注册失败", zap.String("email", req.Email), zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Đăng ký thất bại, vui lòng thử lại"})
		return
	}

	c.JSON(201, gin.H{"success": true, "data": resp})
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Thông tin đăng nhập không hợp lệ"})
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(401, gin.H{"success": false, "error": "Email hoặc mật khẩu không đúng"})
		case errors.Is(err, service.ErrAccountDisabled):
			c.JSON(403, gin.H{"success": false, "error": "Tài khoản đã bị vô hiệu hóa"})
		default:
			h.logger.Error("登录失败", zap.String("email", req.Email), zap.Error(err))
			c.JSON(500, gin.H{"success": false, "error": "Đăng nhập thất bại, vui lòng thử lại"})
		}
		return
	}

	c.JSON(200, gin.H{"success": true, "data": resp})
}

// Refresh 刷新令牌
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Thiếu refresh token"})
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(401, gin.H{"success": false, "error": "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": tokens})
}

// Me 当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(401, gin.H{"success": false, "error": "Yêu cầu đăng nhập"})
		return
	}
	c.JSON(200, gin.H{"success": true, "data": user})
}
