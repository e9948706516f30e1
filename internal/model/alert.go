package model

import "time"

// 预警类型
const (
	AlertTypeSuicideRisk    = "suicide_risk"
	AlertTypeSelfHarmRisk   = "self_harm_risk"
	AlertTypeHighStress     = "high_stress"
	AlertTypeGeneralConcern = "general_concern"
)

// 预警严重程度
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert 风险预警
type Alert struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	AlertType string `json:"alert_type"` // suicide_risk, self_harm_risk, high_stress, general_concern
	Severity  string `json:"severity"`   // low, medium, high, critical
	Message   string `json:"message"`

	IsResolved      bool       `json:"is_resolved"`
	ResolvedBy      *int64     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RiskAssessment 文本风险评估结果
type RiskAssessment struct {
	RiskLevel                  string  `json:"risk_level"` // low, medium, high, critical
	Confidence                 float64 `json:"confidence"`
	Reason                     string  `json:"reason"`
	RequiresImmediateAttention bool    `json:"requires_immediate_attention"`
}

// AlertEvent 通过 Redis 频道广播给在线医生的预警事件
type AlertEvent struct {
	AlertID   int64     `json:"alert_id"`
	UserID    int64     `json:"user_id"`
	AlertType string    `json:"alert_type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
