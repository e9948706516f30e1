package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mindcare/mindcare-go/internal/config"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrAccountDisabled    = errors.New("账号已停用")
	ErrInvalidToken       = errors.New("令牌无效")
)

// 令牌类型
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// UserStore 用户存储接口
type UserStore interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

// Claims JWT 负载
type Claims struct {
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// AuthService 认证服务：注册、登录、令牌签发与校验
type AuthService struct {
	users  UserStore
	cfg    config.JWTConfig
	logger *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(users UserStore, cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, cfg: cfg, logger: logger}
}

// Register 注册新用户，默认 user 角色与免费套餐
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成密码哈希失败: %w", err)
	}

	user := &model.User{
		Email:            req.Email,
		PasswordHash:     string(hash),
		FullName:         req.FullName,
		Phone:            req.Phone,
		Role:             model.RoleUser,
		IsActive:         true,
		SubscriptionPlan: model.PlanFree,
	}
	saved, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(saved)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户注册成功", zap.Int64("userId", saved.ID), zap.String("email", saved.Email))
	return &model.AuthResponse{User: saved, Tokens: tokens}, nil
}

// Login 校验密码并签发令牌
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("更新登录时间失败", zap.Int64("userId", user.ID), zap.Error(err))
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户登录成功", zap.Int64("userId", user.ID))
	return &model.AuthResponse{User: user, Tokens: tokens}, nil
}

// Refresh 用刷新令牌换发新令牌对
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return model.TokenPair{}, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.TokenPair{}, ErrInvalidToken
	}
	if !user.IsActive {
		return model.TokenPair{}, ErrAccountDisabled
	}

	return s.issueTokens(user)
}

// Authenticate 校验访问令牌并返回用户
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.parseToken(accessToken, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// issueTokens 为用户签发访问令牌与刷新令牌
func (s *AuthService) issueTokens(user *model.User) (model.TokenPair, error) {
	access, err := s.sign(user, tokenTypeAccess, time.Duration(s.cfg.AccessTTLSeconds)*time.Second)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.sign(user, tokenTypeRefresh, time.Duration(s.cfg.RefreshTTLSeconds)*time.Second)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sign(user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parseToken(tokenStr, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
