package model

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DoctorSession 医生端预警推送连接
type DoctorSession struct {
	DoctorID      int64
	Name          string
	Conn          *websocket.Conn
	SessionID     string
	ClientIP      string
	LastHeartbeat time.Time
	MissedBeats   int
	mu            sync.Mutex // 保护会话字段与写入
}

// UpdateHeartbeat 更新心跳时间
func (s *DoctorSession) UpdateHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastHeartbeat = time.Now()
	s.MissedBeats = 0
}

// IncrementMissedBeats 增加丢失心跳次数
func (s *DoctorSession) IncrementMissedBeats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MissedBeats++
}

// ShouldBeCleaned 判断是否应该清理
func (s *DoctorSession) ShouldBeCleaned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.MissedBeats >= 3
}

// WriteMessage 向 WebSocket 写入消息（线程安全）
func (s *DoctorSession) WriteMessage(message interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteJSON(message)
}
