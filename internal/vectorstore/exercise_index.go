package vectorstore

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Entry 索引条目，向量由练习的标题、描述与收益拼接后计算
type Entry struct {
	ExerciseID int64     // 练习 ID
	Category   string    // 练习分类
	Vector     []float64 // 语义向量
}

// Match 检索结果
type Match struct {
	ExerciseID int64   // 练习 ID
	Score      float64 // 相似度得分（0-1，越高越相似）
}

// ExerciseIndex 内存向量索引
type ExerciseIndex struct {
	entries map[int64]*Entry // exerciseId -> entry
	mu      sync.RWMutex     // 读写锁
	logger  *zap.Logger
}

// NewExerciseIndex 创建练习索引
func NewExerciseIndex(logger *zap.Logger) *ExerciseIndex {
	return &ExerciseIndex{
		entries: make(map[int64]*Entry),
		logger:  logger,
	}
}

// Add 添加条目，同 ID 覆盖
func (idx *ExerciseIndex) Add(entry Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if entry.ExerciseID == 0 {
		return fmt.Errorf("exercise ID cannot be empty")
	}
	if len(entry.Vector) == 0 {
		return fmt.Errorf("entry vector cannot be empty")
	}

	idx.entries[entry.ExerciseID] = &entry
	idx.logger.Debug("索引条目已添加",
		zap.Int64("exerciseId", entry.ExerciseID),
		zap.Int("dimension", len(entry.Vector)))
	return nil
}

// Search 向量检索（返回 Top-K 最相似的练习）
func (idx *ExerciseIndex) Search(queryVector []float64, topK int, minScore float64) ([]Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}

	results := make([]Match, 0, len(idx.entries))
	for _, entry := range idx.entries {
		score := cosineSimilarity(queryVector, entry.Vector)
		if score >= minScore {
			results = append(results, Match{ExerciseID: entry.ExerciseID, Score: score})
		}
	}

	// 按相似度降序
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	idx.logger.Info("检索完成",
		zap.Int("indexSize", len(idx.entries)),
		zap.Int("resultCount", len(results)))

	return results, nil
}

// Count 获取条目数量
func (idx *ExerciseIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Clear 清空索引
func (idx *ExerciseIndex) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = make(map[int64]*Entry)
	idx.logger.Info("练习索引已清空")
}

// cosineSimilarity 计算余弦相似度（0-1，越高越相似）
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (normA * normB)
}
