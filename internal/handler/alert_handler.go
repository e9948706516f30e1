package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/middleware"
	"github.com/mindcare/mindcare-go/internal/repository"
	"github.com/mindcare/mindcare-go/internal/service"
	"go.uber.org/zap"
)

// AlertHandler 预警处理器
type AlertHandler struct {
	alertService *service.AlertService
	logger       *zap.Logger
}

// NewAlertHandler 创建预警处理器
func NewAlertHandler(alertService *service.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		logger:       logger,
	}
}

// MyAlerts 查询当前用户的预警
func (h *AlertHandler) MyAlerts(c *gin.Context) {
	user := middleware.CurrentUser(c)
	includeResolved := c.Query("include_resolved") == "true"

	alerts, err := h.alertService.ListByUser(c.Request.Context(), user.ID, includeResolved)
	if err != nil {
		h.logger.Error("查询用户预警失败", zap.Int64("userId", user.ID), zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được danh sách cảnh báo"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": alerts})
}

// ActiveAlerts 查询未处理预警（医生端），severity 可选过滤
func (h *AlertHandler) ActiveAlerts(c *gin.Context) {
	severity := c.Query("severity")

	alerts, err := h.alertService.ListActive(c.Request.Context(), severity)
	if err != nil {
		h.logger.Error("查询未处理预警失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được danh sách cảnh báo"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": alerts})
}

// Resolve 处理预警（医生端）
func (h *AlertHandler) Resolve(c *gin.Context) {
	user := middleware.CurrentUser(c)
	alertID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"success": false, "error": "ID cảnh báo không hợp lệ"})
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	// notes 可选，body 为空也接受
	_ = c.ShouldBindJSON(&req)

	if err := h.alertService.Resolve(c.Request.Context(), alertID, user.ID, req.Notes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(404, gin.H{"success": false, "error": "Không tìm thấy cảnh báo"})
			return
		}
		h.logger.Error("处理预警失败", zap.Int64("alertId", alertID), zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Xử lý cảnh báo thất bại"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}
