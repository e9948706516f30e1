package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrDoctorOffline = errors.New("医生不在线")

// NotifyService 值班医生连接管理：维护 WebSocket 会话并把预警事件推给在线医生
type NotifyService struct {
	doctorSessions  map[int64]*model.DoctorSession // doctorId -> session
	sessionToDoctor map[string]int64               // sessionId -> doctorId
	mu              sync.RWMutex                   // 读写锁保护
	logger          *zap.Logger
}

// NewNotifyService 创建通知服务
func NewNotifyService(logger *zap.Logger) *NotifyService {
	s := &NotifyService{
		doctorSessions:  make(map[int64]*model.DoctorSession),
		sessionToDoctor: make(map[string]int64),
		logger:          logger,
	}

	// 启动心跳检测
	go s.heartbeatChecker()

	return s
}

// RegisterDoctor 注册医生连接，同一医生重连时关闭旧连接
func (s *NotifyService) RegisterDoctor(doctorID int64, name string, conn *websocket.Conn, sessionID string, clientIP string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.doctorSessions[doctorID]; ok {
		s.logger.Info("医生重新连接，关闭旧连接",
			zap.Int64("doctorId", doctorID),
			zap.String("oldSessionId", existing.SessionID))
		existing.Conn.Close()
		delete(s.sessionToDoctor, existing.SessionID)
	}

	session := &model.DoctorSession{
		DoctorID:      doctorID,
		Name:          name,
		Conn:          conn,
		SessionID:     sessionID,
		ClientIP:      clientIP,
		LastHeartbeat: time.Now(),
		MissedBeats:   0,
	}

	s.doctorSessions[doctorID] = session
	s.sessionToDoctor[sessionID] = doctorID

	s.logger.Info("医生连接注册成功",
		zap.Int64("doctorId", doctorID),
		zap.String("name", name),
		zap.String("sessionId", sessionID))
}

// Broadcast 向所有在线医生推送预警事件
func (s *NotifyService) Broadcast(event model.AlertEvent) {
	s.mu.RLock()
	sessions := make([]*model.DoctorSession, 0, len(s.doctorSessions))
	for _, session := range s.doctorSessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		if err := session.WriteMessage(map[string]interface{}{
			"type": "alert",
			"data": event,
		}); err != nil {
			s.logger.Error("预警推送失败",
				zap.Int64("doctorId", session.DoctorID),
				zap.Error(err))
			go s.RemoveByDoctorID(session.DoctorID)
		}
	}

	s.logger.Info("预警事件已广播",
		zap.Int64("alertId", event.AlertID),
		zap.Int("onlineDoctors", len(sessions)))
}

// SendToDoctor 向指定医生推送消息
func (s *NotifyService) SendToDoctor(doctorID int64, message interface{}) error {
	s.mu.RLock()
	session, ok := s.doctorSessions[doctorID]
	s.mu.RUnlock()

	if !ok {
		return ErrDoctorOffline
	}

	if err := session.WriteMessage(message); err != nil {
		s.logger.Error("消息推送失败", zap.Int64("doctorId", doctorID), zap.Error(err))
		go s.RemoveByDoctorID(doctorID)
		return err
	}
	return nil
}

// UpdateHeartbeat 更新心跳时间
func (s *NotifyService) UpdateHeartbeat(doctorID int64) bool {
	s.mu.RLock()
	session, ok := s.doctorSessions[doctorID]
	s.mu.RUnlock()

	if !ok {
		return false
	}

	session.UpdateHeartbeat()
	s.logger.Debug("心跳已更新", zap.Int64("doctorId", doctorID))
	return true
}

// RemoveBySessionID 根据 sessionId 移除连接
func (s *NotifyService) RemoveBySessionID(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doctorID, ok := s.sessionToDoctor[sessionID]; ok {
		delete(s.doctorSessions, doctorID)
		delete(s.sessionToDoctor, sessionID)
		s.logger.Info("医生连接已移除",
			zap.Int64("doctorId", doctorID),
			zap.String("sessionId", sessionID))
	}
}

// RemoveByDoctorID 根据 doctorId 移除连接
func (s *NotifyService) RemoveByDoctorID(doctorID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.doctorSessions[doctorID]; ok {
		delete(s.sessionToDoctor, session.SessionID)
		delete(s.doctorSessions, doctorID)
		s.logger.Info("医生连接已移除", zap.Int64("doctorId", doctorID))
	}
}

// GetOnlineCount 获取在线医生数
func (s *NotifyService) GetOnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doctorSessions)
}

// RunAlertSubscriber 订阅 Redis 预警频道并转发给在线医生。
// 阻塞运行直到 ctx 取消，由调用方放在独立 goroutine 中。
func (s *NotifyService) RunAlertSubscriber(ctx context.Context, rdb *redis.Client) {
	pubsub := rdb.Subscribe(ctx, AlertChannel)
	defer pubsub.Close()

	s.logger.Info("预警订阅已启动", zap.String("channel", AlertChannel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("预警订阅已停止")
			return
		case msg, ok := <-ch:
			if !ok {
				s.logger.Warn("预警订阅通道关闭")
				return
			}
			var event model.AlertEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Error("解析预警事件失败", zap.Error(err))
				continue
			}
			s.Broadcast(event)
		}
	}
}

// heartbeatChecker 心跳检测器
func (s *NotifyService) heartbeatChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()

		now := time.Now()
		for doctorID, session := range s.doctorSessions {
			if now.Sub(session.LastHeartbeat) > 60*time.Second {
				session.IncrementMissedBeats()

				if session.ShouldBeCleaned() {
					s.logger.Info("清理无效连接",
						zap.Int64("doctorId", doctorID),
						zap.Int("missedBeats", session.MissedBeats))

					session.Conn.Close()
					delete(s.doctorSessions, doctorID)
					delete(s.sessionToDoctor, session.SessionID)
				} else {
					s.logger.Warn("医生心跳丢失",
						zap.Int64("doctorId", doctorID),
						zap.Int("missedBeats", session.MissedBeats))
				}
			}
		}

		s.mu.Unlock()
	}
}
