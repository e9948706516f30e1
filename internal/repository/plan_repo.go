package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindcare/mindcare-go/internal/model"
)

// PlanRepository 套餐存储
type PlanRepository struct {
	db *pgxpool.Pool
}

// NewPlanRepository 创建套餐存储
func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, name, display_name, price_monthly, chat_limit,
	voice_enabled, video_enabled, empathy_layer_enabled, is_active`

// GetByName 按名称查询启用的套餐
func (r *PlanRepository) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	plan := &model.Plan{}
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = $1 AND is_active`

	err := r.db.QueryRow(ctx, query, name).Scan(
		&plan.ID, &plan.Name, &plan.DisplayName, &plan.PriceMonthly, &plan.ChatLimit,
		&plan.VoiceEnabled, &plan.VideoEnabled, &plan.EmpathyEnabled, &plan.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询套餐失败: %w", err)
	}
	return plan, nil
}

// List 查询全部启用套餐
func (r *PlanRepository) List(ctx context.Context) ([]model.Plan, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE is_active ORDER BY price_monthly ASC`)
	if err != nil {
		return nil, fmt.Errorf("查询套餐列表失败: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.DisplayName, &p.PriceMonthly, &p.ChatLimit,
			&p.VoiceEnabled, &p.VideoEnabled, &p.EmpathyEnabled, &p.IsActive); err != nil {
			return nil, fmt.Errorf("读取套餐失败: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// SeedDefaults 写入默认套餐（幂等）
func (r *PlanRepository) SeedDefaults(ctx context.Context) error {
	query := `
		INSERT INTO plans (name, display_name, price_monthly, chat_limit, voice_enabled, video_enabled, empathy_layer_enabled)
		VALUES
			('free', 'Gói miễn phí', 0, 10, FALSE, FALSE, FALSE),
			('personal', 'Gói cá nhân', 99000, 100, TRUE, FALSE, TRUE),
			('family', 'Gói gia đình', 199000, -1, TRUE, TRUE, TRUE)
		ON CONFLICT (name) DO NOTHING`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("初始化默认套餐失败: %w", err)
	}
	return nil
}
