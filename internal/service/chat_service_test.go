package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mindcare/mindcare-go/internal/client"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/risk"
	"go.uber.org/zap"
)

type fakeChatStore struct {
	sessions map[int64]*model.ChatSession
	messages []model.ChatMessage
	nextID   int64
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{sessions: make(map[int64]*model.ChatSession)}
}

func (f *fakeChatStore) CreateSession(ctx context.Context, userID int64, title string) (*model.ChatSession, error) {
	f.nextID++
	s := &model.ChatSession{
		ID:        f.nextID,
		UserID:    userID,
		Title:     title,
		Status:    model.SessionStatusActive,
		CreatedAt: time.Now(),
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeChatStore) GetSession(ctx context.Context, sessionID int64) (*model.ChatSession, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *s
	return &copied, nil
}

func (f *fakeChatStore) ListRecentSessions(ctx context.Context, userID int64, limit int) ([]model.ChatSession, error) {
	var out []model.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeChatStore) UpdateSessionTitle(ctx context.Context, sessionID int64, title string) error {
	if s, ok := f.sessions[sessionID]; ok {
		s.Title = title
	}
	return nil
}

func (f *fakeChatStore) TouchSession(ctx context.Context, sessionID int64) error { return nil }

func (f *fakeChatStore) SetSessionStatus(ctx context.Context, sessionID int64, status string) error {
	if s, ok := f.sessions[sessionID]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeChatStore) DeleteSession(ctx context.Context, sessionID int64) error {
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeChatStore) InsertMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	f.nextID++
	saved := *msg
	saved.ID = f.nextID
	saved.CreatedAt = time.Now()
	f.messages = append(f.messages, saved)
	return &saved, nil
}

func (f *fakeChatStore) ListMessages(ctx context.Context, sessionID int64, limit int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeGenerator struct {
	output      string
	err         error
	calls       int
	lastMessage string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, message string, cfg client.GenerationConfig) (string, error) {
	f.calls++
	f.lastMessage = message
	return f.output, f.err
}

type fakeHistory struct {
	entries []string
	cleared int
}

func (f *fakeHistory) Append(ctx context.Context, userID int64, content string) error {
	f.entries = append(f.entries, content)
	return nil
}

func (f *fakeHistory) Recent(ctx context.Context, userID int64, n int64) ([]string, error) {
	if int64(len(f.entries)) > n {
		return f.entries[int64(len(f.entries))-n:], nil
	}
	return f.entries, nil
}

func (f *fakeHistory) Clear(ctx context.Context, userID int64) error {
	f.cleared++
	f.entries = nil
	return nil
}

type fakeEmotions struct{ records int }

func (f *fakeEmotions) Record(ctx context.Context, userID int64, text string, assessment risk.Assessment) (*model.EmotionLog, error) {
	f.records++
	return &model.EmotionLog{UserID: userID, Emotion: string(assessment.Tier)}, nil
}

type fakeAlerts struct{ created int }

func (f *fakeAlerts) CheckAndCreate(ctx context.Context, userID int64, text string, assessment risk.Assessment) (*model.Alert, error) {
	if assessment.Tier != risk.TierCritical {
		return nil, nil
	}
	f.created++
	return &model.Alert{ID: 99, UserID: userID, Severity: model.SeverityCritical}, nil
}

func newTestChatService(store *fakeChatStore, gen *fakeGenerator) (*ChatService, *fakeEmotions, *fakeAlerts) {
	emotions := &fakeEmotions{}
	alerts := &fakeAlerts{}
	svc := NewChatService(store, gen, emotions, alerts, nil,
		risk.DefaultPolicy(), false, 30*time.Second, zap.NewNop())
	return svc, emotions, alerts
}

func testUser() *model.User {
	return &model.User{ID: 1, Role: model.RoleUser, IsActive: true}
}

func TestSendMessageRejectsEmpty(t *testing.T) {
	store := newFakeChatStore()
	gen := &fakeGenerator{output: "ok"}
	svc, _, _ := newTestChatService(store, gen)

	_, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{Message: "   "})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(store.messages) != 0 || gen.calls != 0 {
		t.Fatal("rejected send must not persist anything or reach the generator")
	}
}

func TestSendMessageRejectsOversize(t *testing.T) {
	store := newFakeChatStore()
	gen := &fakeGenerator{output: "ok"}
	svc, _, _ := newTestChatService(store, gen)

	_, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{
		Message: strings.Repeat("a", model.MaxMessageLength+1),
	})
	if !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
	if len(store.messages) != 0 || gen.calls != 0 {
		t.Fatal("rejected send must not persist anything or reach the generator")
	}
}

func TestSendMessagePersistsUserThenAssistant(t *testing.T) {
	store := newFakeChatStore()
	svc, emotions, _ := newTestChatService(store, &fakeGenerator{output: "Tôi hiểu cảm giác của bạn."})

	resp, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{Message: "hôm nay ổn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(store.messages))
	}
	if store.messages[0].Role != model.MessageRoleUser || store.messages[1].Role != model.MessageRoleAssistant {
		t.Fatalf("messages persisted out of order: %s, %s", store.messages[0].Role, store.messages[1].Role)
	}
	if resp.AIMessage.Content != "Tôi hiểu cảm giác của bạn." {
		t.Fatalf("unexpected AI content: %s", resp.AIMessage.Content)
	}
	if resp.Escalate {
		t.Fatal("benign message must not escalate")
	}
	if emotions.records != 1 {
		t.Fatalf("expected 1 emotion record, got %d", emotions.records)
	}
}

func TestSendMessageCriticalSkipsGenerator(t *testing.T) {
	store := newFakeChatStore()
	gen := &fakeGenerator{output: "should not be used"}
	svc, _, alerts := newTestChatService(store, gen)

	resp, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{
		Message: "tôi buồn, mệt mỏi và không muốn sống nữa",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gen.calls != 0 {
		t.Fatalf("critical message must not reach the generator, got %d calls", gen.calls)
	}
	if resp.AIMessage.Content != criticalReply {
		t.Fatalf("expected canned safety reply, got %q", resp.AIMessage.Content)
	}
	if !resp.Escalate {
		t.Fatal("critical message must escalate")
	}
	if resp.Resources == nil || resp.Resources.Hotline != EmergencyHotline {
		t.Fatal("escalated response must carry emergency resources")
	}
	if alerts.created != 1 {
		t.Fatalf("expected 1 alert, got %d", alerts.created)
	}
}

func TestSendMessageGeneratorFailureFallsBack(t *testing.T) {
	store := newFakeChatStore()
	svc, _, _ := newTestChatService(store, &fakeGenerator{err: errors.New("gateway down")})

	resp, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{Message: "kể chuyện vui đi"})
	if err != nil {
		t.Fatalf("generator failure must not fail the request: %v", err)
	}

	if !strings.Contains(resp.AIMessage.Content, EmergencyHotline) {
		t.Fatalf("fallback reply must include the hotline, got %q", resp.AIMessage.Content)
	}
	if len(store.messages) != 2 {
		t.Fatalf("both messages must still be persisted, got %d", len(store.messages))
	}
}

func TestSendMessageRejectsBusySession(t *testing.T) {
	store := newFakeChatStore()
	svc, _, _ := newTestChatService(store, &fakeGenerator{output: "ok"})

	session, _ := store.CreateSession(context.Background(), 1, "t")
	svc.inflight[session.ID] = true

	_, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{
		Message:   "xin chào",
		SessionID: session.ID,
	})
	if !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
}

func TestSendMessageRejectsForeignSession(t *testing.T) {
	store := newFakeChatStore()
	svc, _, _ := newTestChatService(store, &fakeGenerator{output: "ok"})

	session, _ := store.CreateSession(context.Background(), 2, "t")

	_, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{
		Message:   "xin chào",
		SessionID: session.ID,
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for foreign session, got %v", err)
	}
}

func TestSendMessageSetsTitleFromFirstMessage(t *testing.T) {
	store := newFakeChatStore()
	svc, _, _ := newTestChatService(store, &fakeGenerator{output: "ok"})

	long := strings.Repeat("x", 80)
	resp, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{Message: long})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := store.sessions[resp.SessionID]
	if len([]rune(session.Title)) != 53 {
		t.Fatalf("title should be 50 runes plus ellipsis, got %d runes", len([]rune(session.Title)))
	}
	if !strings.HasSuffix(session.Title, "...") {
		t.Fatalf("truncated title should end with ellipsis, got %q", session.Title)
	}
}

func TestSendMessageSkipsAnalysisWhenDisabled(t *testing.T) {
	store := newFakeChatStore()
	svc, emotions, alerts := newTestChatService(store, &fakeGenerator{output: "ok"})

	disabled := false
	resp, err := svc.SendMessage(context.Background(), testUser(), &model.SendMessageRequest{
		Message:        "tôi buồn",
		AnalyzeEmotion: &disabled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Assessment != nil {
		t.Fatal("assessment must be omitted when analysis is disabled")
	}
	if emotions.records != 0 || alerts.created != 0 {
		t.Fatal("no emotion log or alert should be written when analysis is disabled")
	}
}

func TestCumulativeModeEscalatesAcrossMessages(t *testing.T) {
	store := newFakeChatStore()
	gen := &fakeGenerator{output: "ok"}
	svc := NewChatService(store, gen, &fakeEmotions{}, &fakeAlerts{}, nil,
		risk.DefaultPolicy(), true, 30*time.Second, zap.NewNop())
	user := testUser()

	first, err := svc.SendMessage(context.Background(), user, &model.SendMessageRequest{Message: "tôi buồn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Escalate {
		t.Fatal("first mild message must not escalate")
	}

	svc.SendMessage(context.Background(), user, &model.SendMessageRequest{
		Message: "vẫn lo lắng", SessionID: first.SessionID,
	})
	third, err := svc.SendMessage(context.Background(), user, &model.SendMessageRequest{
		Message: "stress không dứt", SessionID: first.SessionID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !third.Escalate {
		t.Fatal("cumulative score of 3 must escalate the session")
	}
}

func TestNewSessionPromptRecallsCachedTopics(t *testing.T) {
	store := newFakeChatStore()
	gen := &fakeGenerator{output: "ok"}
	history := &fakeHistory{entries: []string{"dạo này tôi mất ngủ"}}
	svc := NewChatService(store, gen, &fakeEmotions{}, &fakeAlerts{}, history,
		risk.DefaultPolicy(), false, 30*time.Second, zap.NewNop())
	user := testUser()

	first, err := svc.SendMessage(context.Background(), user, &model.SendMessageRequest{Message: "chào bạn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.lastMessage, "dạo này tôi mất ngủ") {
		t.Fatalf("fresh session prompt must recall cached topics, got %q", gen.lastMessage)
	}
	if history.entries[len(history.entries)-1] != "chào bạn" {
		t.Fatal("sent message must be appended to the cache")
	}

	// 会话已有历史后改用会话内消息，不再回看缓存
	if _, err := svc.SendMessage(context.Background(), user, &model.SendMessageRequest{
		Message: "hôm nay thì ổn hơn", SessionID: first.SessionID,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(gen.lastMessage, "dạo này tôi mất ngủ") {
		t.Fatalf("session with history must not recall the cache, got %q", gen.lastMessage)
	}
	if !strings.Contains(gen.lastMessage, "chào bạn") {
		t.Fatalf("session history must be folded into the prompt, got %q", gen.lastMessage)
	}
}

func TestDeleteSessionClearsHistoryCache(t *testing.T) {
	store := newFakeChatStore()
	history := &fakeHistory{entries: []string{"chuyện cũ"}}
	svc := NewChatService(store, &fakeGenerator{output: "ok"}, &fakeEmotions{}, &fakeAlerts{}, history,
		risk.DefaultPolicy(), false, 30*time.Second, zap.NewNop())

	session, _ := store.CreateSession(context.Background(), 1, "t")
	if err := svc.DeleteSession(context.Background(), 1, session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history.cleared != 1 || len(history.entries) != 0 {
		t.Fatalf("deleting a session must clear the user's cache, cleared=%d entries=%d",
			history.cleared, len(history.entries))
	}
}

func TestArchiveAndDeleteCheckOwnership(t *testing.T) {
	store := newFakeChatStore()
	svc, _, _ := newTestChatService(store, &fakeGenerator{output: "ok"})

	session, _ := store.CreateSession(context.Background(), 2, "t")

	if err := svc.ArchiveSession(context.Background(), 1, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("archive must reject foreign session, got %v", err)
	}
	if err := svc.DeleteSession(context.Background(), 1, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("delete must reject foreign session, got %v", err)
	}

	if err := svc.ArchiveSession(context.Background(), 2, session.ID); err != nil {
		t.Fatalf("owner archive failed: %v", err)
	}
	if store.sessions[session.ID].Status != model.SessionStatusArchived {
		t.Fatalf("expected archived status, got %s", store.sessions[session.ID].Status)
	}
}
