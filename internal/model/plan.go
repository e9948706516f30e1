package model

// Plan 订阅套餐
type Plan struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"` // free, personal, family
	DisplayName    string  `json:"display_name"`
	PriceMonthly   float64 `json:"price_monthly"`
	ChatLimit      int     `json:"chat_limit"` // 每月会话数上限，-1 表示不限
	VoiceEnabled   bool    `json:"voice_enabled"`
	VideoEnabled   bool    `json:"video_enabled"`
	EmpathyEnabled bool    `json:"empathy_layer_enabled"`
	IsActive       bool    `json:"is_active"`
}
