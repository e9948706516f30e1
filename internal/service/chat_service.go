package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mindcare/mindcare-go/internal/client"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/risk"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage    = errors.New("消息内容不能为空")
	ErrMessageTooLong  = fmt.Errorf("消息超过 %d 字符上限", model.MaxMessageLength)
	ErrSessionNotFound = errors.New("会话不存在")
	ErrSessionBusy     = errors.New("会话有正在处理的消息")
)

// 紧急求助热线（产品运营方提供）
const EmergencyHotline = "1900-1234"

// systemPrompt 咨询人格设定，随每次生成请求下发
const systemPrompt = `Bạn là một AI tư vấn viên tâm lý chuyên nghiệp được đào tạo theo tiêu chuẩn DSM-5. Nhiệm vụ của bạn là:

1. Lắng nghe và thấu hiểu những khó khăn tâm lý của người dùng
2. Đưa ra lời khuyên dựa trên các nguyên tắc tâm lý học lâm sàng
3. Hỗ trợ người dùng nhận diện và quản lý cảm xúc
4. Cung cấp các kỹ thuật thư giãn và coping skills
5. Khuyến khích tìm kiếm sự hỗ trợ chuyên nghiệp khi cần thiết

Hãy trả lời bằng tiếng Việt, thể hiện sự đồng cảm và chuyên nghiệp. Không chẩn đoán bệnh mà chỉ hỗ trợ tâm lý. Nếu phát hiện các dấu hiệu nghiêm trọng, hãy khuyến khích người dùng tìm kiếm sự giúp đỡ từ chuyên gia.`

// criticalReply 高危消息的本地固定回复，不依赖生成服务
const criticalReply = `🚨 Tôi nhận thấy bạn đang trải qua giai đoạn khó khăn. Tôi nghĩ bạn nên được hỗ trợ từ chuyên gia y tế. Bạn có muốn tôi giúp kết nối với bác sĩ không?`

// fallbackReply 生成服务不可用时的降级回复，始终带上热线
const fallbackReply = `Xin lỗi, tôi đang gặp một chút vấn đề kỹ thuật. Bạn có thể thử lại sau được không? Trong thời gian này, nếu bạn cần hỗ trợ khẩn cấp, hãy liên hệ hotline ` + EmergencyHotline + `.`

// Generator 生成服务接口
type Generator interface {
	Generate(ctx context.Context, system, message string, cfg client.GenerationConfig) (string, error)
}

// ChatStore 会话与消息存储接口
type ChatStore interface {
	CreateSession(ctx context.Context, userID int64, title string) (*model.ChatSession, error)
	GetSession(ctx context.Context, sessionID int64) (*model.ChatSession, error)
	ListRecentSessions(ctx context.Context, userID int64, limit int) ([]model.ChatSession, error)
	UpdateSessionTitle(ctx context.Context, sessionID int64, title string) error
	TouchSession(ctx context.Context, sessionID int64) error
	SetSessionStatus(ctx context.Context, sessionID int64, status string) error
	DeleteSession(ctx context.Context, sessionID int64) error
	InsertMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error)
	ListMessages(ctx context.Context, sessionID int64, limit int) ([]model.ChatMessage, error)
}

// EmotionRecorder 情绪记录接口
type EmotionRecorder interface {
	Record(ctx context.Context, userID int64, text string, assessment risk.Assessment) (*model.EmotionLog, error)
}

// AlertChecker 风险预警接口
type AlertChecker interface {
	CheckAndCreate(ctx context.Context, userID int64, text string, assessment risk.Assessment) (*model.Alert, error)
}

// ContextCache 跨会话的用户近期消息缓存接口
type ContextCache interface {
	Append(ctx context.Context, userID int64, content string) error
	Recent(ctx context.Context, userID int64, n int64) ([]string, error)
	Clear(ctx context.Context, userID int64) error
}

// ChatService 聊天服务：接收用户消息 → 风险判级 → 选择回复 → 触发升级
type ChatService struct {
	store     ChatStore
	generator Generator
	emotions  EmotionRecorder
	alerts    AlertChecker
	history   ContextCache // 可为 nil

	policy     risk.Policy
	cumulative bool
	timeout    time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	inflight map[int64]bool          // sessionId -> 是否有未完成的生成请求
	trackers map[int64]*risk.Tracker // 累计模式下的会话跟踪器
}

// NewChatService 创建聊天服务
func NewChatService(
	store ChatStore,
	generator Generator,
	emotions EmotionRecorder,
	alerts AlertChecker,
	history ContextCache,
	policy risk.Policy,
	cumulative bool,
	timeout time.Duration,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		store:      store,
		generator:  generator,
		emotions:   emotions,
		alerts:     alerts,
		history:    history,
		policy:     policy,
		cumulative: cumulative,
		timeout:    timeout,
		logger:     logger,
		inflight:   make(map[int64]bool),
		trackers:   make(map[int64]*risk.Tracker),
	}
}

// SendMessage 处理一次发送：用户消息先入库，再产生 AI 回复。
// 每个会话同一时刻只允许一条消息在处理中。
func (s *ChatService) SendMessage(ctx context.Context, user *model.User, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	content := strings.TrimSpace(req.Message)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(content)) > model.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	session, err := s.getOrCreateSession(ctx, user.ID, req.SessionID)
	if err != nil {
		return nil, err
	}

	// 单飞保证：生成请求未返回前拒绝同会话的新消息
	if !s.acquire(session.ID) {
		return nil, ErrSessionBusy
	}
	defer s.release(session.ID)

	analyze := req.AnalyzeEmotion == nil || *req.AnalyzeEmotion

	// 风险判级（纯函数，对任意输入总有结果）
	assessment := s.assess(session.ID, content)

	userMsg := &model.ChatMessage{
		SessionID: session.ID,
		Role:      model.MessageRoleUser,
		Content:   content,
	}
	var alert *model.Alert
	if analyze {
		sentiment := sentimentOf(assessment.Tier)
		userMsg.Emotion = string(assessment.Tier)
		userMsg.SentimentScore = &sentiment
		userMsg.RiskLevel = riskLevelOf(assessment.Tier)
	}

	// 用户消息必须先于 AI 回复入库，保证消息日志顺序
	savedUser, err := s.store.InsertMessage(ctx, userMsg)
	if err != nil {
		return nil, err
	}

	if analyze {
		if _, err := s.emotions.Record(ctx, user.ID, content, assessment); err != nil {
			s.logger.Warn("写入情绪记录失败", zap.Int64("userId", user.ID), zap.Error(err))
		}
		alert, err = s.alerts.CheckAndCreate(ctx, user.ID, content, assessment)
		if err != nil {
			s.logger.Warn("创建预警失败", zap.Int64("userId", user.ID), zap.Error(err))
			alert = nil
		}
	}

	escalate := assessment.Tier == risk.TierCritical
	aiContent := s.selectResponse(ctx, user.ID, session.ID, content, escalate)

	aiMsg := &model.ChatMessage{
		SessionID: session.ID,
		Role:      model.MessageRoleAssistant,
		Content:   aiContent,
		Emotion:   string(assessment.Tier),
	}
	savedAI, err := s.store.InsertMessage(ctx, aiMsg)
	if err != nil {
		return nil, err
	}

	s.finishSession(ctx, session, content)
	s.appendHistory(ctx, user.ID, content)

	resp := &model.SendMessageResponse{
		Success:     true,
		SessionID:   session.ID,
		UserMessage: savedUser,
		AIMessage:   savedAI,
		Alert:       alert,
		Escalate:    escalate,
	}
	if analyze {
		resp.Assessment = &assessment
	}
	if escalate {
		resp.Resources = EmergencyResources()
	}

	s.logger.Info("消息处理完成",
		zap.Int64("userId", user.ID),
		zap.Int64("sessionId", session.ID),
		zap.String("tier", string(assessment.Tier)),
		zap.Bool("escalate", escalate))

	return resp, nil
}

// selectResponse 根据风险等级选择回复：
// critical 走本地固定话术（离线可用），其余等级调用生成服务，失败则降级。
func (s *ChatService) selectResponse(ctx context.Context, userID, sessionID int64, content string, critical bool) string {
	if critical {
		return criticalReply
	}

	prompt := s.buildPrompt(ctx, userID, sessionID, content)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	output, err := s.generator.Generate(genCtx, systemPrompt, prompt, client.GenerationConfig{
		Temperature:     0.8,
		MaxOutputTokens: 1024,
	})
	if err != nil {
		// 任何生成失败都不向用户暴露原始错误
		s.logger.Error("生成服务调用失败", zap.Int64("sessionId", sessionID), zap.Error(err))
		return fallbackReply
	}
	return output
}

// buildPrompt 把最近的会话上下文折叠进提示词。
// 新会话还没有消息时改用跨会话缓存里的近期话题。
func (s *ChatService) buildPrompt(ctx context.Context, userID, sessionID int64, content string) string {
	history, err := s.store.ListMessages(ctx, sessionID, 10)
	if err != nil {
		s.logger.Warn("读取会话历史失败", zap.Int64("sessionId", sessionID), zap.Error(err))
		return content
	}
	// 当前这条用户消息已入库，避免在历史里重复出现
	if n := len(history); n > 0 && history[n-1].Role == model.MessageRoleUser && history[n-1].Content == content {
		history = history[:n-1]
	}

	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("Lịch sử trò chuyện:\n")
		for _, msg := range history {
			sb.WriteString(msg.Role)
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	} else if recalled := s.recentTopics(ctx, userID); len(recalled) > 0 {
		sb.WriteString("Người dùng từng chia sẻ gần đây:\n")
		for _, line := range recalled {
			sb.WriteString("- ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(content)
	return sb.String()
}

// recentTopics 读取跨会话缓存，失败时不影响生成
func (s *ChatService) recentTopics(ctx context.Context, userID int64) []string {
	if s.history == nil {
		return nil
	}
	entries, err := s.history.Recent(ctx, userID, 5)
	if err != nil {
		s.logger.Warn("读取历史缓存失败", zap.Int64("userId", userID), zap.Error(err))
		return nil
	}
	return entries
}

// getOrCreateSession 查询会话并校验归属，缺省时新建
func (s *ChatService) getOrCreateSession(ctx context.Context, userID, sessionID int64) (*model.ChatSession, error) {
	if sessionID > 0 {
		session, err := s.store.GetSession(ctx, sessionID)
		if err == nil && session.UserID == userID {
			return session, nil
		}
		// 归属不符按不存在处理，避免泄露他人会话
		return nil, ErrSessionNotFound
	}
	return s.store.CreateSession(ctx, userID, "")
}

// finishSession 首条消息生成标题并刷新会话时间
func (s *ChatService) finishSession(ctx context.Context, session *model.ChatSession, firstMessage string) {
	if session.Title == "" {
		title := firstMessage
		if runes := []rune(title); len(runes) > 50 {
			title = string(runes[:50]) + "..."
		}
		if err := s.store.UpdateSessionTitle(ctx, session.ID, title); err != nil {
			s.logger.Warn("更新会话标题失败", zap.Int64("sessionId", session.ID), zap.Error(err))
		}
		return
	}
	if err := s.store.TouchSession(ctx, session.ID); err != nil {
		s.logger.Warn("刷新会话失败", zap.Int64("sessionId", session.ID), zap.Error(err))
	}
}

// assess 按配置的策略判级
func (s *ChatService) assess(sessionID int64, content string) risk.Assessment {
	if !s.cumulative {
		return s.policy.Classify(content)
	}

	s.mu.Lock()
	tracker, ok := s.trackers[sessionID]
	if !ok {
		tracker = risk.NewTracker(s.policy, true)
		s.trackers[sessionID] = tracker
	}
	s.mu.Unlock()

	return tracker.Observe(content)
}

func (s *ChatService) acquire(sessionID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[sessionID] {
		return false
	}
	s.inflight[sessionID] = true
	return true
}

func (s *ChatService) release(sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, sessionID)
}

func (s *ChatService) appendHistory(ctx context.Context, userID int64, content string) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, userID, content); err != nil {
		s.logger.Warn("写入历史缓存失败", zap.Int64("userId", userID), zap.Error(err))
	}
}

// GetSessionMessages 读取会话消息（校验归属）
func (s *ChatService) GetSessionMessages(ctx context.Context, userID, sessionID int64) ([]model.ChatMessage, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s.store.ListMessages(ctx, sessionID, 0)
}

// GetUserSessions 查询用户最近会话
func (s *ChatService) GetUserSessions(ctx context.Context, userID int64, limit int) ([]model.ChatSession, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListRecentSessions(ctx, userID, limit)
}

// DeleteSession 删除会话（校验归属）
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil || session.UserID != userID {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	delete(s.trackers, sessionID)
	s.mu.Unlock()

	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	// 已删除的内容不应继续进入跨会话上下文
	if s.history != nil {
		if err := s.history.Clear(ctx, userID); err != nil {
			s.logger.Warn("清理历史缓存失败", zap.Int64("userId", userID), zap.Error(err))
		}
	}
	return nil
}

// ArchiveSession 归档会话（校验归属）
func (s *ChatService) ArchiveSession(ctx context.Context, userID, sessionID int64) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil || session.UserID != userID {
		return ErrSessionNotFound
	}
	return s.store.SetSessionStatus(ctx, sessionID, model.SessionStatusArchived)
}

// EmergencyResources 紧急求助信息，不依赖任何外部服务
func EmergencyResources() *model.EmergencyInfo {
	return &model.EmergencyInfo{
		Hotline: EmergencyHotline,
		Message: "Bạn không đơn độc. Hãy liên hệ ngay với đội ngũ hỗ trợ khẩn cấp.",
		Actions: []string{
			"Gọi hotline 24/7: " + EmergencyHotline,
			"Kết nối với bác sĩ trong mục Tìm bác sĩ",
			"Đến cơ sở y tế gần nhất nếu cần hỗ trợ ngay",
		},
	}
}

// sentimentOf 风险等级到情感分值的固定映射
func sentimentOf(tier risk.Tier) float64 {
	switch tier {
	case risk.TierCritical:
		return -0.9
	case risk.TierNegative:
		return -0.5
	case risk.TierNeutral:
		return 0
	default:
		return 0.5
	}
}

// riskLevelOf 风险等级到预警级别的固定映射
func riskLevelOf(tier risk.Tier) string {
	switch tier {
	case risk.TierCritical:
		return model.SeverityCritical
	case risk.TierNegative:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
