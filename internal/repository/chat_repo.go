package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindcare/mindcare-go/internal/model"
)

// ChatRepository 会话与消息存储
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository 创建会话存储
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession 创建会话
func (r *ChatRepository) CreateSession(ctx context.Context, userID int64, title string) (*model.ChatSession, error) {
	session := &model.ChatSession{}
	query := `
		INSERT INTO chat_sessions (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, title, status, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, userID, title).Scan(
		&session.ID, &session.UserID, &session.Title, &session.Status,
		&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}
	return session, nil
}

// GetSession 查询会话
func (r *ChatRepository) GetSession(ctx context.Context, sessionID int64) (*model.ChatSession, error) {
	session := &model.ChatSession{}
	query := `
		SELECT s.id, s.user_id, s.title, s.status, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = s.id)
		FROM chat_sessions s WHERE s.id = $1`

	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&session.ID, &session.UserID, &session.Title, &session.Status,
		&session.CreatedAt, &session.UpdatedAt, &session.MessageCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询会话失败: %w", err)
	}
	return session, nil
}

// ListRecentSessions 查询用户最近的会话
func (r *ChatRepository) ListRecentSessions(ctx context.Context, userID int64, limit int) ([]model.ChatSession, error) {
	query := `
		SELECT s.id, s.user_id, s.title, s.status, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = s.id)
		FROM chat_sessions s
		WHERE s.user_id = $1
		ORDER BY s.updated_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("查询会话列表失败: %w", err)
	}
	defer rows.Close()

	var sessions []model.ChatSession
	for rows.Next() {
		var s model.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Status,
			&s.CreatedAt, &s.UpdatedAt, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("读取会话失败: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// UpdateSessionTitle 更新会话标题
func (r *ChatRepository) UpdateSessionTitle(ctx context.Context, sessionID int64, title string) error {
	query := `UPDATE chat_sessions SET title = $2, updated_at = now() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, sessionID, title); err != nil {
		return fmt.Errorf("更新会话标题失败: %w", err)
	}
	return nil
}

// TouchSession 刷新会话更新时间
func (r *ChatRepository) TouchSession(ctx context.Context, sessionID int64) error {
	query := `UPDATE chat_sessions SET updated_at = now() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("刷新会话失败: %w", err)
	}
	return nil
}

// SetSessionStatus 更新会话状态（归档等）
func (r *ChatRepository) SetSessionStatus(ctx context.Context, sessionID int64, status string) error {
	query := `UPDATE chat_sessions SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, sessionID, status)
	if err != nil {
		return fmt.Errorf("更新会话状态失败: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession 删除会话（消息级联删除）
func (r *ChatRepository) DeleteSession(ctx context.Context, sessionID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("删除会话失败: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertMessage 追加消息
func (r *ChatRepository) InsertMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (session_id, role, content, emotion_detected, sentiment_score, risk_level)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''))
		RETURNING id, created_at`

	saved := *msg
	err := r.db.QueryRow(ctx, query,
		msg.SessionID, msg.Role, msg.Content, msg.Emotion, msg.SentimentScore, msg.RiskLevel,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("保存消息失败: %w", err)
	}
	return &saved, nil
}

// ListMessages 按时间升序读取会话消息，limit <= 0 表示全部
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID int64, limit int) ([]model.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content,
			COALESCE(emotion_detected, ''), sentiment_score, COALESCE(risk_level, ''), created_at
		FROM chat_messages WHERE session_id = $1 ORDER BY created_at ASC, id ASC`
	args := []interface{}{sessionID}
	if limit > 0 {
		// 取最近 limit 条仍按升序返回
		query = `
			SELECT id, session_id, role, content, emotion_detected, sentiment_score, risk_level, created_at
			FROM (
				SELECT id, session_id, role, content,
					COALESCE(emotion_detected, '') AS emotion_detected, sentiment_score,
					COALESCE(risk_level, '') AS risk_level, created_at
				FROM chat_messages WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2
			) t ORDER BY created_at ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询消息失败: %w", err)
	}
	defer rows.Close()

	var messages []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content,
			&m.Emotion, &m.SentimentScore, &m.RiskLevel, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("读取消息失败: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountSessionsSince 统计用户自某时间起创建的会话数（套餐配额用）
func (r *ChatRepository) CountSessionsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1 AND created_at >= $2`
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("统计会话数失败: %w", err)
	}
	return count, nil
}

// CountTotals 统计会话与消息总数（管理端）
func (r *ChatRepository) CountTotals(ctx context.Context) (sessions, messages int, err error) {
	if err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chat_sessions`).Scan(&sessions); err != nil {
		return 0, 0, fmt.Errorf("统计会话总数失败: %w", err)
	}
	if err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chat_messages`).Scan(&messages); err != nil {
		return 0, 0, fmt.Errorf("统计消息总数失败: %w", err)
	}
	return sessions, messages, nil
}
