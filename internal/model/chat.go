package model

import (
	"time"

	"github.com/mindcare/mindcare-go/internal/risk"
)

// 消息角色
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// 会话状态
const (
	SessionStatusActive   = "active"
	SessionStatusArchived = "archived"
)

// 单条消息最大长度（与前端输入框限制一致）
const MaxMessageLength = 500

// ChatSession 聊天会话
type ChatSession struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"` // active, archived
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChatMessage 聊天消息。创建后不可变，严格按发送/回复顺序追加。
type ChatMessage struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"session_id"`
	Role      string `json:"role"` // user, assistant
	Content   string `json:"content"`

	// 风险评估结果（仅分析过的用户消息带有）
	Emotion        string   `json:"emotion_detected,omitempty"`
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	RiskLevel      string   `json:"risk_level,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Message        string `json:"message" binding:"required"`
	SessionID      int64  `json:"session_id"`
	AnalyzeEmotion *bool  `json:"analyze_emotion"` // 缺省为 true
}

// SendMessageResponse 发送消息响应
type SendMessageResponse struct {
	Success        bool             `json:"success"`
	SessionID      int64            `json:"session_id"`
	UserMessage    *ChatMessage     `json:"user_message"`
	AIMessage      *ChatMessage     `json:"ai_message"`
	Assessment     *risk.Assessment `json:"emotion_analysis,omitempty"`
	Alert          *Alert           `json:"alert,omitempty"`
	Escalate       bool             `json:"escalate"`
	Resources      *EmergencyInfo   `json:"emergency_resources,omitempty"`
	RemainingChats interface{}      `json:"remaining_chats,omitempty"` // 数字或 "unlimited"
}

// EmergencyInfo 紧急求助资源
type EmergencyInfo struct {
	Hotline string   `json:"hotline"`
	Message string   `json:"message"`
	Actions []string `json:"actions"`
}
