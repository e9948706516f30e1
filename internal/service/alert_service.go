package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/risk"
	"go.uber.org/zap"
)

// criticalKeywords 命中任意一个直接判 critical
var criticalKeywords = []string{
	"suicide", "kill myself", "end it all", "want to die",
	"better off dead", "self-harm", "hurt myself", "cut myself", "overdose",
	"tự tử", "muốn chết", "kết thúc tất cả", "tự làm đau", "không muốn sống",
}

// highRiskKeywords 命中两个以上判 high
var highRiskKeywords = []string{
	"hopeless", "worthless", "no point", "give up",
	"can't go on", "unbearable", "too much pain", "no way out",
	"tuyệt vọng", "vô dụng", "bỏ cuộc", "không lối thoát", "không chịu nổi",
}

// alertTypeOf 严重程度到预警类型的固定映射
var alertTypeOf = map[string]string{
	model.SeverityCritical: model.AlertTypeSuicideRisk,
	model.SeverityHigh:     model.AlertTypeSelfHarmRisk,
	model.SeverityMedium:   model.AlertTypeHighStress,
}

// AlertStore 预警存储接口
type AlertStore interface {
	Insert(ctx context.Context, alert *model.Alert) (*model.Alert, error)
	Resolve(ctx context.Context, alertID, resolvedBy int64, notes string) error
	ListByUser(ctx context.Context, userID int64, includeResolved bool) ([]model.Alert, error)
	ListActive(ctx context.Context, severity string) ([]model.Alert, error)
}

// AlertPublisher 预警事件广播接口
type AlertPublisher interface {
	Publish(ctx context.Context, event model.AlertEvent) error
}

// AlertService 风险预警服务：分析消息风险，落库并向值班端广播
type AlertService struct {
	store     AlertStore
	publisher AlertPublisher // 可为 nil
	logger    *zap.Logger
}

// NewAlertService 创建预警服务
func NewAlertService(store AlertStore, publisher AlertPublisher, logger *zap.Logger) *AlertService {
	return &AlertService{store: store, publisher: publisher, logger: logger}
}

// AnalyzeRisk 合并关键词命中与分级结果给出风险评估。
// 关键词给出更细的危机分型，分级结果兜底保证 critical 消息一定升级。
func (s *AlertService) AnalyzeRisk(text string, assessment risk.Assessment) model.RiskAssessment {
	lowered := strings.ToLower(text)

	for _, kw := range criticalKeywords {
		if strings.Contains(lowered, kw) {
			return model.RiskAssessment{
				RiskLevel:                  model.SeverityCritical,
				Confidence:                 0.95,
				Reason:                     "Phát hiện từ khóa nguy cơ nghiêm trọng: " + kw,
				RequiresImmediateAttention: true,
			}
		}
	}

	highHits := 0
	for _, kw := range highRiskKeywords {
		if strings.Contains(lowered, kw) {
			highHits++
		}
	}
	if highHits >= 2 {
		return model.RiskAssessment{
			RiskLevel:                  model.SeverityHigh,
			Confidence:                 0.85,
			Reason:                     fmt.Sprintf("Phát hiện %d dấu hiệu nguy cơ cao", highHits),
			RequiresImmediateAttention: true,
		}
	}

	switch assessment.Tier {
	case risk.TierCritical:
		return model.RiskAssessment{
			RiskLevel:                  model.SeverityCritical,
			Confidence:                 0.80,
			Reason:                     "Trạng thái cảm xúc ở mức nghiêm trọng",
			RequiresImmediateAttention: true,
		}
	case risk.TierNegative:
		return model.RiskAssessment{
			RiskLevel:  model.SeverityMedium,
			Confidence: 0.60,
			Reason:     "Trạng thái cảm xúc tiêu cực kéo dài",
		}
	default:
		return model.RiskAssessment{
			RiskLevel:  model.SeverityLow,
			Confidence: 0.50,
			Reason:     "Không phát hiện dấu hiệu nguy cơ",
		}
	}
}

// CheckAndCreate 评估消息风险，需要关注时创建预警并广播。
// 未达到关注阈值时返回 (nil, nil)。
func (s *AlertService) CheckAndCreate(ctx context.Context, userID int64, text string, assessment risk.Assessment) (*model.Alert, error) {
	ra := s.AnalyzeRisk(text, assessment)
	if !ra.RequiresImmediateAttention {
		return nil, nil
	}

	alert := &model.Alert{
		UserID:    userID,
		AlertType: alertTypeOf[ra.RiskLevel],
		Severity:  ra.RiskLevel,
		Message:   fmt.Sprintf("%s (độ tin cậy %.0f%%)", ra.Reason, ra.Confidence*100),
	}

	saved, err := s.store.Insert(ctx, alert)
	if err != nil {
		return nil, err
	}

	s.logger.Warn("创建风险预警",
		zap.Int64("userId", userID),
		zap.String("severity", saved.Severity),
		zap.String("alertType", saved.AlertType))

	s.broadcast(saved)
	return saved, nil
}

// broadcast 异步广播，失败只记日志不影响主流程
func (s *AlertService) broadcast(alert *model.Alert) {
	if s.publisher == nil {
		return
	}
	event := model.AlertEvent{
		AlertID:   alert.ID,
		UserID:    alert.UserID,
		AlertType: alert.AlertType,
		Severity:  alert.Severity,
		Message:   alert.Message,
		CreatedAt: alert.CreatedAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("广播预警事件失败", zap.Int64("alertId", alert.ID), zap.Error(err))
		}
	}()
}

// Resolve 处理预警
func (s *AlertService) Resolve(ctx context.Context, alertID, resolvedBy int64, notes string) error {
	if err := s.store.Resolve(ctx, alertID, resolvedBy, notes); err != nil {
		return err
	}
	s.logger.Info("预警已处理", zap.Int64("alertId", alertID), zap.Int64("resolvedBy", resolvedBy))
	return nil
}

// ListByUser 查询用户预警
func (s *AlertService) ListByUser(ctx context.Context, userID int64, includeResolved bool) ([]model.Alert, error) {
	return s.store.ListByUser(ctx, userID, includeResolved)
}

// ListActive 查询未处理预警（医生端）
func (s *AlertService) ListActive(ctx context.Context, severity string) ([]model.Alert, error) {
	return s.store.ListActive(ctx, severity)
}
