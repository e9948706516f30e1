package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/model"
	"go.uber.org/zap"
)

type fakePlans struct {
	plan *model.Plan
}

func (f *fakePlans) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	return f.plan, nil
}

type fakeUsage struct {
	count int
}

func (f *fakeUsage) CountSessionsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return f.count, nil
}

func runQuota(t *testing.T, user *model.User, plans PlanStore, usage UsageCounter) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat/send", nil)
	if user != nil {
		c.Set(ContextUserKey, user)
	}

	ChatQuota(plans, usage, zap.NewNop())(c)
	return w, c
}

func TestQuotaAllowsUnderLimit(t *testing.T) {
	user := &model.User{ID: 1, Role: model.RoleUser, SubscriptionPlan: model.PlanFree}
	plans := &fakePlans{plan: &model.Plan{Name: model.PlanFree, ChatLimit: 10}}

	w, c := runQuota(t, user, plans, &fakeUsage{count: 3})
	if c.IsAborted() {
		t.Fatalf("request under limit must pass, status %d", w.Code)
	}
	remaining, _ := c.Get(ContextRemainingKey)
	if remaining != 7 {
		t.Fatalf("expected 7 remaining chats, got %v", remaining)
	}
}

func TestQuotaBlocksAtLimit(t *testing.T) {
	user := &model.User{ID: 1, Role: model.RoleUser, SubscriptionPlan: model.PlanFree}
	plans := &fakePlans{plan: &model.Plan{Name: model.PlanFree, ChatLimit: 10}}

	w, c := runQuota(t, user, plans, &fakeUsage{count: 10})
	if !c.IsAborted() {
		t.Fatal("request at limit must be blocked")
	}
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestQuotaUnlimitedPlan(t *testing.T) {
	user := &model.User{ID: 1, Role: model.RoleUser, SubscriptionPlan: model.PlanFamily}
	plans := &fakePlans{plan: &model.Plan{Name: model.PlanFamily, ChatLimit: -1}}

	_, c := runQuota(t, user, plans, &fakeUsage{count: 100000})
	if c.IsAborted() {
		t.Fatal("unlimited plan must never be blocked")
	}
	remaining, _ := c.Get(ContextRemainingKey)
	if remaining != "unlimited" {
		t.Fatalf("expected unlimited marker, got %v", remaining)
	}
}

func TestQuotaSkipsDoctorsAndAdmins(t *testing.T) {
	for _, role := range []string{model.RoleDoctor, model.RoleAdmin} {
		user := &model.User{ID: 1, Role: role}
		_, c := runQuota(t, user, &fakePlans{}, &fakeUsage{count: 100000})
		if c.IsAborted() {
			t.Fatalf("role %s must bypass quota", role)
		}
	}
}

func TestQuotaRequiresAuthentication(t *testing.T) {
	w, c := runQuota(t, nil, &fakePlans{}, &fakeUsage{})
	if !c.IsAborted() {
		t.Fatal("anonymous request must be rejected")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
