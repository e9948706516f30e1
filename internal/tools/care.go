package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mindcare/mindcare-go/internal/model"
	"go.uber.org/zap"
)

// DoctorFinder 医生目录查询接口
type DoctorFinder interface {
	ListAvailableDoctors(ctx context.Context, specialization string) ([]model.DoctorProfile, error)
}

// ExerciseRecommender 练习推荐接口
type ExerciseRecommender interface {
	Recommend(ctx context.Context, feeling string, topK int) ([]model.Exercise, error)
}

// toolTimeout 单次工具调用超时
const toolTimeout = 10 * time.Second

// RegisterCareTools 注册就医助手可用的内置工具
func RegisterCareTools(registry *Registry, doctors DoctorFinder, exercises ExerciseRecommender, hotline string, logger *zap.Logger) error {
	careTools := []*Tool{
		{
			Name:        "find_available_doctors",
			Description: "查询当前可预约的医生列表，可按专科筛选",
			Parameters: ParameterSchema{
				Type: "object",
				Properties: map[string]Property{
					"specialization": {
						Type:        "string",
						Description: "专科方向，如 anxiety、depression、sleep，留空表示不限",
					},
				},
			},
			Handler: func(params map[string]interface{}) (interface{}, error) {
				ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
				defer cancel()

				spec := StringParam(params, "specialization", "")
				list, err := doctors.ListAvailableDoctors(ctx, spec)
				if err != nil {
					return nil, fmt.Errorf("查询医生列表失败: %w", err)
				}
				return map[string]interface{}{
					"count":   len(list),
					"doctors": list,
				}, nil
			},
		},
		{
			Name:        "get_emergency_resources",
			Description: "获取紧急求助热线与自助指引，用户表达危机情绪时调用",
			Parameters: ParameterSchema{
				Type:       "object",
				Properties: map[string]Property{},
			},
			Handler: func(params map[string]interface{}) (interface{}, error) {
				return map[string]interface{}{
					"hotline":   hotline,
					"available": "24/7",
					"message":   "Bạn không đơn độc. Hãy liên hệ ngay với đội ngũ hỗ trợ khẩn cấp.",
				}, nil
			},
		},
		{
			Name:        "recommend_exercise",
			Description: "根据用户描述的感受推荐合适的自助练习",
			Parameters: ParameterSchema{
				Type: "object",
				Properties: map[string]Property{
					"feeling": {
						Type:        "string",
						Description: "用户当前感受的描述",
					},
				},
				Required: []string{"feeling"},
			},
			Handler: func(params map[string]interface{}) (interface{}, error) {
				ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
				defer cancel()

				feeling := StringParam(params, "feeling", "")
				if feeling == "" {
					return nil, fmt.Errorf("feeling 参数不能为空")
				}
				list, err := exercises.Recommend(ctx, feeling, 3)
				if err != nil {
					return nil, fmt.Errorf("推荐练习失败: %w", err)
				}
				return map[string]interface{}{
					"count":     len(list),
					"exercises": list,
				}, nil
			},
		},
	}

	for _, tool := range careTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	logger.Info("内置工具注册完成", zap.Int("count", registry.Count()))
	return nil
}
