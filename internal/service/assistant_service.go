package service

import (
	"context"
	"fmt"

	"github.com/mindcare/mindcare-go/internal/client"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/tools"
	"go.uber.org/zap"
)

// maxToolIterations 工具调用循环上限，防止模型陷入死循环
const maxToolIterations = 5

// assistantSystemPrompt 就医助手人格设定
const assistantSystemPrompt = `Bạn là trợ lý chăm sóc sức khỏe tâm thần của MindCare. Nhiệm vụ của bạn:

1. Giúp người dùng tìm bác sĩ phù hợp với nhu cầu của họ
2. Cung cấp thông tin hỗ trợ khẩn cấp khi cần thiết
3. Gợi ý các bài tập tự chăm sóc phù hợp với cảm xúc hiện tại

Hãy sử dụng các công cụ được cung cấp để tra cứu thông tin thực tế, không tự bịa thông tin bác sĩ hay bài tập. Trả lời bằng tiếng Việt, ngắn gọn và thân thiện.`

// assistantFallback 模型不可用时的固定回复
const assistantFallback = `Xin lỗi, trợ lý đang tạm thời gián đoạn. Bạn có thể thử lại sau, hoặc liên hệ hotline ` + EmergencyHotline + ` nếu cần hỗ trợ khẩn cấp.`

// ModelCaller 支持工具调用的生成接口
type ModelCaller interface {
	GenerateWithTools(ctx context.Context, system string, contents []client.Content, decls []client.FunctionDeclaration, cfg *client.GenConfig) (*client.GeminiResponse, error)
}

// AssistantService 就医助手：带工具调用的多轮生成循环
type AssistantService struct {
	model    ModelCaller
	registry *tools.Registry
	logger   *zap.Logger
}

// NewAssistantService 创建就医助手服务
func NewAssistantService(model ModelCaller, registry *tools.Registry, logger *zap.Logger) *AssistantService {
	return &AssistantService{model: model, registry: registry, logger: logger}
}

// Process 处理一次提问：模型请求工具时执行并回传结果，直到产出文本回复。
// 任何模型错误都降级为固定回复，不向用户暴露。
func (s *AssistantService) Process(ctx context.Context, user *model.User, question string) (string, error) {
	contents := []client.Content{
		{Role: "user", Parts: []client.Part{{Text: question}}},
	}
	decls := s.registry.Declarations()
	cfg := &client.GenConfig{Temperature: 0.7, MaxOutputTokens: 1024}

	for i := 0; i < maxToolIterations; i++ {
		resp, err := s.model.GenerateWithTools(ctx, assistantSystemPrompt, contents, decls, cfg)
		if err != nil {
			s.logger.Error("助手生成失败", zap.Int64("userId", user.ID), zap.Error(err))
			return assistantFallback, nil
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			text := resp.Text()
			if text == "" {
				s.logger.Warn("助手返回空内容", zap.Int64("userId", user.ID))
				return assistantFallback, nil
			}
			return text, nil
		}

		// 模型的工具调用轮与执行结果轮都要进上下文
		modelParts := make([]client.Part, 0, len(calls))
		resultParts := make([]client.Part, 0, len(calls))
		for _, call := range calls {
			call := call
			modelParts = append(modelParts, client.Part{FunctionCall: &call})

			result, err := s.registry.Execute(call.Name, call.Args)
			if err != nil {
				result = map[string]interface{}{"error": err.Error()}
			}
			resultParts = append(resultParts, client.Part{
				FunctionResponse: &client.FunctionResponse{
					Name:     call.Name,
					Response: result,
				},
			})
		}
		contents = append(contents,
			client.Content{Role: "model", Parts: modelParts},
			client.Content{Role: "function", Parts: resultParts},
		)
	}

	return "", fmt.Errorf("工具调用超过 %d 轮仍未得到回复", maxToolIterations)
}
