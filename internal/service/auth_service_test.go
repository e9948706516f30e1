package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mindcare/mindcare-go/internal/config"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/repository"
	"go.uber.org/zap"
)

type fakeUserStore struct {
	byEmail map[string]*model.User
	byID    map[int64]*model.User
	nextID  int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*model.User),
		byID:    make(map[int64]*model.User),
	}
}

func (f *fakeUserStore) Create(ctx context.Context, user *model.User) (*model.User, error) {
	f.nextID++
	saved := *user
	saved.ID = f.nextID
	f.byEmail[saved.Email] = &saved
	f.byID[saved.ID] = &saved
	return &saved, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, id int64) error { return nil }

func newTestAuthService() (*AuthService, *fakeUserStore) {
	store := newFakeUserStore()
	cfg := config.JWTConfig{Secret: "test-secret", AccessTTLSeconds: 3600, RefreshTTLSeconds: 7200}
	return NewAuthService(store, cfg, zap.NewNop()), store
}

func registerReq() *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:    "an@example.com",
		Password: "matkhau123",
		FullName: "Nguyễn Văn An",
	}
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	svc, _ := newTestAuthService()

	reg, err := svc.Register(context.Background(), registerReq())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if reg.User.Role != model.RoleUser || reg.User.SubscriptionPlan != model.PlanFree {
		t.Fatalf("new user must default to user role on free plan, got %s/%s",
			reg.User.Role, reg.User.SubscriptionPlan)
	}
	if reg.User.PasswordHash == "matkhau123" {
		t.Fatal("password must not be stored in plain text")
	}
	if reg.Tokens.AccessToken == "" || reg.Tokens.RefreshToken == "" {
		t.Fatal("registration must issue both tokens")
	}

	login, err := svc.Login(context.Background(), &model.LoginRequest{
		Email: "an@example.com", Password: "matkhau123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Fatalf("login returned wrong user: %d", login.User.ID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, err := svc.Register(context.Background(), registerReq()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), registerReq()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService()
	svc.Register(context.Background(), registerReq())

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email: "an@example.com", Password: "saimatkhau",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email: "khong@ton.tai", Password: "x",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, store := newTestAuthService()
	reg, _ := svc.Register(context.Background(), registerReq())
	store.byEmail["an@example.com"].IsActive = false
	store.byID[reg.User.ID].IsActive = false

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email: "an@example.com", Password: "matkhau123",
	})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuthenticateReturnsUser(t *testing.T) {
	svc, _ := newTestAuthService()
	reg, _ := svc.Register(context.Background(), registerReq())

	user, err := svc.Authenticate(context.Background(), reg.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.ID != reg.User.ID {
		t.Fatalf("authenticated wrong user: %d", user.ID)
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	svc, _ := newTestAuthService()
	reg, _ := svc.Register(context.Background(), registerReq())

	// 刷新令牌不能当访问令牌用
	if _, err := svc.Authenticate(context.Background(), reg.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, err := svc.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	svc, _ := newTestAuthService()
	reg, _ := svc.Register(context.Background(), registerReq())

	pair, err := svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("refresh must issue a full token pair")
	}

	if _, err := svc.Authenticate(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("new access token must be valid: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newTestAuthService()
	reg, _ := svc.Register(context.Background(), registerReq())

	if _, err := svc.Refresh(context.Background(), reg.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
