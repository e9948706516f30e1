package model

import "time"

// EmotionLog 情绪记录，每条被分析的用户消息产生一条
type EmotionLog struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Emotion        string    `json:"emotion"`   // positive, neutral, negative, critical
	Intensity      int       `json:"intensity"` // 1-10
	SentimentScore float64   `json:"sentiment_score"`
	Triggers       string    `json:"triggers,omitempty"`
	LoggedAt       time.Time `json:"logged_at"`
}

// EmotionStats 一段时间内的情绪统计
type EmotionStats struct {
	Period           string         `json:"period"` // week, month, year
	TotalLogs        int            `json:"total_logs"`
	Distribution     map[string]int `json:"emotion_distribution"`
	AverageIntensity float64        `json:"average_intensity"`
	AverageSentiment float64        `json:"average_sentiment"`
	Trend            string         `json:"trend"` // improving, stable, declining
	RecentLogs       []EmotionLog   `json:"recent_logs,omitempty"`
}
