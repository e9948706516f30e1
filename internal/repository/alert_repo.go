package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindcare/mindcare-go/internal/model"
)

// AlertRepository 预警存储
type AlertRepository struct {
	db *pgxpool.Pool
}

// NewAlertRepository 创建预警存储
func NewAlertRepository(db *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, user_id, alert_type, severity, message,
	is_resolved, resolved_by, resolved_at, COALESCE(resolution_notes, ''), created_at`

// Insert 写入预警
func (r *AlertRepository) Insert(ctx context.Context, alert *model.Alert) (*model.Alert, error) {
	query := `
		INSERT INTO alerts (user_id, alert_type, severity, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	saved := *alert
	err := r.db.QueryRow(ctx, query,
		alert.UserID, alert.AlertType, alert.Severity, alert.Message,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("保存预警失败: %w", err)
	}
	return &saved, nil
}

// Resolve 标记预警已处理
func (r *AlertRepository) Resolve(ctx context.Context, alertID, resolvedBy int64, notes string) error {
	query := `
		UPDATE alerts
		SET is_resolved = TRUE, resolved_by = $2, resolved_at = now(), resolution_notes = NULLIF($3, '')
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, alertID, resolvedBy, notes)
	if err != nil {
		return fmt.Errorf("处理预警失败: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser 查询用户的预警
func (r *AlertRepository) ListByUser(ctx context.Context, userID int64, includeResolved bool) ([]model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE user_id = $1 AND ($2 OR NOT is_resolved)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID, includeResolved)
	if err != nil {
		return nil, fmt.Errorf("查询预警失败: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// ListActive 查询所有未处理预警，severity 为空时不过滤（医生/管理端）
func (r *AlertRepository) ListActive(ctx context.Context, severity string) ([]model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE NOT is_resolved AND ($1 = '' OR severity = $1)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, severity)
	if err != nil {
		return nil, fmt.Errorf("查询未处理预警失败: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// CountActiveBySeverity 按严重程度统计未处理预警（管理端）
func (r *AlertRepository) CountActiveBySeverity(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT severity, COUNT(*) FROM alerts WHERE NOT is_resolved GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("统计预警失败: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("读取预警统计失败: %w", err)
		}
		counts[severity] = count
	}
	return counts, rows.Err()
}

func scanAlerts(rows pgx.Rows) ([]model.Alert, error) {
	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.AlertType, &a.Severity, &a.Message,
			&a.IsResolved, &a.ResolvedBy, &a.ResolvedAt, &a.ResolutionNotes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("读取预警失败: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
