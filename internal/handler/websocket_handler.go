package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mindcare/mindcare-go/internal/middleware"
	"github.com/mindcare/mindcare-go/internal/service"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境应该检查 Origin 白名单
		return true
	},
}

// wsMessage 医生端上行消息
type wsMessage struct {
	Type string `json:"type"` // HEARTBEAT
}

// WebSocketHandler 医生端预警推送连接处理器
type WebSocketHandler struct {
	notifyService *service.NotifyService
	logger        *zap.Logger
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler(notifyService *service.NotifyService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		notifyService: notifyService,
		logger:        logger,
	}
}

// HandleAlerts 医生预警推送连接入口，需在 JWTAuth 与医生角色校验之后
func (h *WebSocketHandler) HandleAlerts(c *gin.Context) {
	doctor := middleware.CurrentUser(c)
	if doctor == nil {
		c.JSON(401, gin.H{"success": false, "error": "Yêu cầu đăng nhập"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	clientIP := c.ClientIP()
	h.notifyService.RegisterDoctor(doctor.ID, doctor.FullName, conn, sessionID, clientIP)
	defer h.notifyService.RemoveBySessionID(sessionID)

	h.logger.Info("WebSocket 连接建立",
		zap.Int64("doctorId", doctor.ID),
		zap.String("sessionId", sessionID))

	// 消息循环，只处理心跳
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket 读取错误", zap.Error(err))
			}
			break
		}

		switch msg.Type {
		case "HEARTBEAT":
			h.notifyService.UpdateHeartbeat(doctor.ID)
			h.logger.Debug("收到心跳", zap.Int64("doctorId", doctor.ID))
		default:
			h.logger.Warn("未知消息类型",
				zap.Int64("doctorId", doctor.ID),
				zap.String("type", msg.Type))
		}
	}

	h.logger.Info("WebSocket 连接断开", zap.Int64("doctorId", doctor.ID))
}
