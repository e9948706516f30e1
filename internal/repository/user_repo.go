package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindcare/mindcare-go/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// UserRepository 用户存储
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository 创建用户存储
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, COALESCE(phone, ''), role,
	is_active, is_verified, COALESCE(avatar_url, ''),
	subscription_plan, subscription_status, subscription_ends_at,
	created_at, updated_at, last_login`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Phone, &user.Role,
		&user.IsActive, &user.IsVerified, &user.AvatarURL,
		&user.SubscriptionPlan, &user.SubscriptionStatus, &user.SubscriptionEndsAt,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取用户失败: %w", err)
	}
	return user, nil
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (email, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING ` + userColumns

	return scanUser(r.db.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.FullName, user.Phone, user.Role))
}

// GetByID 按 ID 查询用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByEmail 按邮箱查询用户
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// UpdateLastLogin 更新最近登录时间
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	query := `UPDATE users SET last_login = now(), updated_at = now() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("更新登录时间失败: %w", err)
	}
	return nil
}

// SetActive 启用/停用账号
func (r *UserRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, userID, active); err != nil {
		return fmt.Errorf("更新账号状态失败: %w", err)
	}
	return nil
}

// CountByRole 按角色统计用户数
func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("统计用户失败: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("读取统计失败: %w", err)
		}
		counts[role] = count
	}
	return counts, rows.Err()
}

// ListAvailableDoctors 查询可预约的医生，specialization 为空时不过滤
func (r *UserRepository) ListAvailableDoctors(ctx context.Context, specialization string) ([]model.DoctorProfile, error) {
	query := `
		SELECT d.id, d.user_id, u.full_name, d.license_number, d.specialization,
			d.years_of_experience, COALESCE(d.bio, ''), d.consultation_fee,
			COALESCE(d.languages, ''), d.is_verified, d.is_available, d.rating, d.total_sessions
		FROM doctor_profiles d
		JOIN users u ON u.id = d.user_id
		WHERE d.is_available AND u.is_active
			AND ($1 = '' OR d.specialization ILIKE '%' || $1 || '%')
		ORDER BY d.rating DESC`

	rows, err := r.db.Query(ctx, query, specialization)
	if err != nil {
		return nil, fmt.Errorf("查询医生列表失败: %w", err)
	}
	defer rows.Close()

	var doctors []model.DoctorProfile
	for rows.Next() {
		var d model.DoctorProfile
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.FullName, &d.LicenseNumber, &d.Specialization,
			&d.YearsOfExperience, &d.Bio, &d.ConsultationFee,
			&d.Languages, &d.IsVerified, &d.IsAvailable, &d.Rating, &d.TotalSessions,
		); err != nil {
			return nil, fmt.Errorf("读取医生档案失败: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}
