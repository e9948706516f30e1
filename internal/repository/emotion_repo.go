package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindcare/mindcare-go/internal/model"
)

// EmotionRepository 情绪记录存储
type EmotionRepository struct {
	db *pgxpool.Pool
}

// NewEmotionRepository 创建情绪记录存储
func NewEmotionRepository(db *pgxpool.Pool) *EmotionRepository {
	return &EmotionRepository{db: db}
}

// Insert 写入情绪记录
func (r *EmotionRepository) Insert(ctx context.Context, log *model.EmotionLog) (*model.EmotionLog, error) {
	query := `
		INSERT INTO emotion_logs (user_id, emotion, intensity, sentiment_score, triggers)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, logged_at`

	saved := *log
	err := r.db.QueryRow(ctx, query,
		log.UserID, log.Emotion, log.Intensity, log.SentimentScore, log.Triggers,
	).Scan(&saved.ID, &saved.LoggedAt)
	if err != nil {
		return nil, fmt.Errorf("保存情绪记录失败: %w", err)
	}
	return &saved, nil
}

// ListSince 按时间倒序读取用户自某时间起的情绪记录
func (r *EmotionRepository) ListSince(ctx context.Context, userID int64, since time.Time) ([]model.EmotionLog, error) {
	query := `
		SELECT id, user_id, emotion, intensity, sentiment_score, COALESCE(triggers, ''), logged_at
		FROM emotion_logs
		WHERE user_id = $1 AND logged_at >= $2
		ORDER BY logged_at DESC`

	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("查询情绪记录失败: %w", err)
	}
	defer rows.Close()

	var logs []model.EmotionLog
	for rows.Next() {
		var l model.EmotionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Emotion, &l.Intensity,
			&l.SentimentScore, &l.Triggers, &l.LoggedAt); err != nil {
			return nil, fmt.Errorf("读取情绪记录失败: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DistributionSince 统计全部用户一段时间内的情绪分布（管理端）
func (r *EmotionRepository) DistributionSince(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `SELECT emotion, COUNT(*) FROM emotion_logs WHERE logged_at >= $1 GROUP BY emotion`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("统计情绪分布失败: %w", err)
	}
	defer rows.Close()

	dist := make(map[string]int)
	for rows.Next() {
		var emotion string
		var count int
		if err := rows.Scan(&emotion, &count); err != nil {
			return nil, fmt.Errorf("读取情绪分布失败: %w", err)
		}
		dist[emotion] = count
	}
	return dist, rows.Err()
}
