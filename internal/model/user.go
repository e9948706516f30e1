package model

import "time"

// 用户角色
const (
	RoleUser   = "user"
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// 订阅套餐
const (
	PlanFree     = "free"
	PlanPersonal = "personal"
	PlanFamily   = "family"
)

// User 用户
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Phone        string     `json:"phone,omitempty"`
	Role         string     `json:"role"` // user, doctor, admin
	IsActive     bool       `json:"is_active"`
	IsVerified   bool       `json:"is_verified"`
	AvatarURL    string     `json:"avatar_url,omitempty"`

	SubscriptionPlan   string     `json:"subscription_plan"`   // free, personal, family
	SubscriptionStatus string     `json:"subscription_status"` // active, cancelled, expired
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// DoctorProfile 医生档案
type DoctorProfile struct {
	ID                int64   `json:"id"`
	UserID            int64   `json:"user_id"`
	FullName          string  `json:"full_name"`
	LicenseNumber     string  `json:"license_number"`
	Specialization    string  `json:"specialization"`
	YearsOfExperience int     `json:"years_of_experience"`
	Bio               string  `json:"bio,omitempty"`
	ConsultationFee   float64 `json:"consultation_fee"`
	Languages         string  `json:"languages,omitempty"`
	IsVerified        bool    `json:"is_verified"`
	IsAvailable       bool    `json:"is_available"`
	Rating            float64 `json:"rating"`
	TotalSessions     int     `json:"total_sessions"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenPair 访问令牌与刷新令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User   *User     `json:"user"`
	Tokens TokenPair `json:"tokens"`
}
