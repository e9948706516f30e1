package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindcare/mindcare-go/internal/model"
)

// ExerciseRepository 自助练习存储
type ExerciseRepository struct {
	db *pgxpool.Pool
}

// NewExerciseRepository 创建自助练习存储
func NewExerciseRepository(db *pgxpool.Pool) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

const exerciseColumns = `id, title, description, category, difficulty,
	duration_minutes, instructions, COALESCE(benefits, ''), is_active`

// GetByID 按 ID 查询练习
func (r *ExerciseRepository) GetByID(ctx context.Context, id int64) (*model.Exercise, error) {
	e := &model.Exercise{}
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.Category, &e.Difficulty,
		&e.DurationMinutes, &e.Instructions, &e.Benefits, &e.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询练习失败: %w", err)
	}
	return e, nil
}

// ListActive 查询全部启用的练习
func (r *ExerciseRepository) ListActive(ctx context.Context) ([]model.Exercise, error) {
	rows, err := r.db.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("查询练习列表失败: %w", err)
	}
	defer rows.Close()

	var exercises []model.Exercise
	for rows.Next() {
		var e model.Exercise
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Difficulty,
			&e.DurationMinutes, &e.Instructions, &e.Benefits, &e.IsActive); err != nil {
			return nil, fmt.Errorf("读取练习失败: %w", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

// SeedDefaults 写入内置练习（幂等，按标题去重）
func (r *ExerciseRepository) SeedDefaults(ctx context.Context) error {
	exercises := []model.Exercise{
		{
			Title:           "Thở hộp 4-4-4-4",
			Description:     "Bài tập thở giúp giảm lo lắng và căng thẳng tức thời",
			Category:        "breathing",
			Difficulty:      "beginner",
			DurationMinutes: 5,
			Instructions:    "Hít vào 4 giây, giữ 4 giây, thở ra 4 giây, giữ 4 giây. Lặp lại 10 lần.",
			Benefits:        "Giảm lo lắng, ổn định nhịp tim",
		},
		{
			Title:           "Thiền quét cơ thể",
			Description:     "Thiền chánh niệm giúp cải thiện giấc ngủ và thư giãn",
			Category:        "meditation",
			Difficulty:      "beginner",
			DurationMinutes: 15,
			Instructions:    "Nằm xuống, nhắm mắt, lần lượt chú ý đến từng phần cơ thể từ đầu đến chân.",
			Benefits:        "Cải thiện giấc ngủ, giảm mệt mỏi",
		},
		{
			Title:           "Nhật ký biết ơn",
			Description:     "Viết nhật ký giúp chuyển hướng suy nghĩ khỏi cảm xúc tiêu cực",
			Category:        "journaling",
			Difficulty:      "beginner",
			DurationMinutes: 10,
			Instructions:    "Mỗi tối viết ra 3 điều bạn biết ơn trong ngày và lý do.",
			Benefits:        "Giảm suy nghĩ tiêu cực, cải thiện tâm trạng",
		},
		{
			Title:           "Tái cấu trúc suy nghĩ",
			Description:     "Kỹ thuật CBT nhận diện và thách thức suy nghĩ tiêu cực",
			Category:        "cbt",
			Difficulty:      "intermediate",
			DurationMinutes: 20,
			Instructions:    "Ghi lại suy nghĩ tiêu cực, tìm bằng chứng ủng hộ và phản bác, viết lại suy nghĩ cân bằng hơn.",
			Benefits:        "Quản lý cảm xúc buồn và stress kéo dài",
		},
	}

	for _, e := range exercises {
		query := `
			INSERT INTO exercises (title, description, category, difficulty, duration_minutes, instructions, benefits)
			SELECT $1, $2, $3, $4, $5, $6, $7
			WHERE NOT EXISTS (SELECT 1 FROM exercises WHERE title = $1)`
		if _, err := r.db.Exec(ctx, query,
			e.Title, e.Description, e.Category, e.Difficulty, e.DurationMinutes, e.Instructions, e.Benefits); err != nil {
			return fmt.Errorf("初始化练习失败: %w", err)
		}
	}
	return nil
}
