package service

import (
	"context"
	"errors"
	"time"

	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/risk"
	"go.uber.org/zap"
)

// ErrInvalidPeriod 统计周期不合法
var ErrInvalidPeriod = errors.New("统计周期不合法")

// EmotionStore 情绪记录存储接口
type EmotionStore interface {
	Insert(ctx context.Context, log *model.EmotionLog) (*model.EmotionLog, error)
	ListSince(ctx context.Context, userID int64, since time.Time) ([]model.EmotionLog, error)
}

// EmotionService 情绪记录与统计服务
type EmotionService struct {
	store  EmotionStore
	logger *zap.Logger
}

// NewEmotionService 创建情绪服务
func NewEmotionService(store EmotionStore, logger *zap.Logger) *EmotionService {
	return &EmotionService{store: store, logger: logger}
}

// Record 从风险评估落一条情绪记录
func (s *EmotionService) Record(ctx context.Context, userID int64, text string, assessment risk.Assessment) (*model.EmotionLog, error) {
	log := &model.EmotionLog{
		UserID:         userID,
		Emotion:        string(assessment.Tier),
		Intensity:      intensityOf(assessment.Score),
		SentimentScore: sentimentOf(assessment.Tier),
		Triggers:       text,
	}
	return s.store.Insert(ctx, log)
}

// LogEmotion 用户手动记录情绪
func (s *EmotionService) LogEmotion(ctx context.Context, userID int64, emotion string, intensity int, triggers string) (*model.EmotionLog, error) {
	if intensity < 1 {
		intensity = 1
	}
	if intensity > 10 {
		intensity = 10
	}
	log := &model.EmotionLog{
		UserID:         userID,
		Emotion:        emotion,
		Intensity:      intensity,
		SentimentScore: sentimentOf(risk.Tier(emotion)),
		Triggers:       triggers,
	}
	return s.store.Insert(ctx, log)
}

// Stats 统计周期内的情绪分布与走势，period 取 week/month/year
func (s *EmotionService) Stats(ctx context.Context, userID int64, period string) (*model.EmotionStats, error) {
	var since time.Time
	now := time.Now()
	switch period {
	case "week":
		since = now.AddDate(0, 0, -7)
	case "month":
		since = now.AddDate(0, -1, 0)
	case "year":
		since = now.AddDate(-1, 0, 0)
	default:
		return nil, ErrInvalidPeriod
	}

	logs, err := s.store.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	stats := &model.EmotionStats{
		Period:       period,
		TotalLogs:    len(logs),
		Distribution: make(map[string]int),
		Trend:        "stable",
	}
	if len(logs) == 0 {
		return stats, nil
	}

	var sumIntensity, sumSentiment float64
	for _, l := range logs {
		stats.Distribution[l.Emotion]++
		sumIntensity += float64(l.Intensity)
		sumSentiment += l.SentimentScore
	}
	stats.AverageIntensity = sumIntensity / float64(len(logs))
	stats.AverageSentiment = sumSentiment / float64(len(logs))
	stats.Trend = trendOf(stats.AverageSentiment)

	if n := len(logs); n > 10 {
		stats.RecentLogs = logs[:10]
	} else {
		stats.RecentLogs = logs
	}
	return stats, nil
}

// trendOf 用周期内平均情感分值判定走势
func trendOf(avgSentiment float64) string {
	switch {
	case avgSentiment > 0.3:
		return "improving"
	case avgSentiment < -0.3:
		return "declining"
	default:
		return "stable"
	}
}

// intensityOf 关键词命中数到强度的固定映射
func intensityOf(score int) int {
	switch {
	case score >= 3:
		return 9
	case score == 2:
		return 7
	case score == 1:
		return 5
	default:
		return 3
	}
}
