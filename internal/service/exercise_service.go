package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/vectorstore"
	"go.uber.org/zap"
)

// Embedder 向量化接口
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float64, error)
	GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error)
}

// ExerciseStore 练习存储接口
type ExerciseStore interface {
	GetByID(ctx context.Context, id int64) (*model.Exercise, error)
	ListActive(ctx context.Context) ([]model.Exercise, error)
}

// ExerciseService 自助练习服务：维护练习向量索引并按用户感受推荐
type ExerciseService struct {
	store    ExerciseStore
	embedder Embedder
	index    *vectorstore.ExerciseIndex
	logger   *zap.Logger
}

// NewExerciseService 创建练习服务
func NewExerciseService(store ExerciseStore, embedder Embedder, index *vectorstore.ExerciseIndex, logger *zap.Logger) *ExerciseService {
	return &ExerciseService{
		store:    store,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// List 查询全部启用练习
func (s *ExerciseService) List(ctx context.Context) ([]model.Exercise, error) {
	return s.store.ListActive(ctx)
}

// BuildIndex 为全部启用练习计算向量并重建索引，启动时调用
func (s *ExerciseService) BuildIndex(ctx context.Context) error {
	exercises, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(exercises) == 0 {
		s.logger.Warn("没有可索引的练习")
		return nil
	}

	texts := make([]string, len(exercises))
	for i, e := range exercises {
		texts[i] = indexText(e)
	}

	vectors, err := s.embedder.GetEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("计算练习向量失败: %w", err)
	}
	if len(vectors) != len(exercises) {
		return fmt.Errorf("向量数量不匹配: 期望 %d, 实际 %d", len(exercises), len(vectors))
	}

	s.index.Clear()
	for i, e := range exercises {
		if err := s.index.Add(vectorstore.Entry{
			ExerciseID: e.ID,
			Category:   e.Category,
			Vector:     vectors[i],
		}); err != nil {
			return err
		}
	}

	s.logger.Info("练习索引构建完成", zap.Int("count", s.index.Count()))
	return nil
}

// Recommend 按用户感受检索最相关的练习
func (s *ExerciseService) Recommend(ctx context.Context, feeling string, topK int) ([]model.Exercise, error) {
	if topK <= 0 {
		topK = 3
	}

	queryVector, err := s.embedder.GetEmbedding(ctx, feeling)
	if err != nil {
		return nil, fmt.Errorf("计算查询向量失败: %w", err)
	}

	matches, err := s.index.Search(queryVector, topK, 0)
	if err != nil {
		return nil, err
	}

	exercises := make([]model.Exercise, 0, len(matches))
	for _, m := range matches {
		e, err := s.store.GetByID(ctx, m.ExerciseID)
		if err != nil {
			s.logger.Warn("读取练习失败", zap.Int64("exerciseId", m.ExerciseID), zap.Error(err))
			continue
		}
		exercises = append(exercises, *e)
	}
	return exercises, nil
}

// indexText 拼接参与向量化的练习文本
func indexText(e model.Exercise) string {
	return strings.Join([]string{e.Title, e.Description, e.Benefits}, "\n")
}
