package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// EmbeddingClient Gemini Embedding 客户端
type EmbeddingClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewEmbeddingClient 创建 Embedding 客户端
func NewEmbeddingClient(apiKey, model string, logger *zap.Logger) *EmbeddingClient {
	return &EmbeddingClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// embedRequest 单条向量化请求
type embedRequest struct {
	Model   string  `json:"model"`
	Content Content `json:"content"`
}

// batchEmbedRequest 批量向量化请求
type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

// batchEmbedResponse 批量向量化响应
type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

// GetEmbedding 获取单个文本的向量
func (c *EmbeddingClient) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	embeddings, err := c.GetEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("未返回向量结果")
	}
	return embeddings[0], nil
}

// GetEmbeddings 批量获取文本向量
func (c *EmbeddingClient) GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("文本列表不能为空")
	}

	modelName := "models/" + c.model
	reqBody := batchEmbedRequest{Requests: make([]embedRequest, 0, len(texts))}
	for _, text := range texts {
		reqBody.Requests = append(reqBody.Requests, embedRequest{
			Model:   modelName,
			Content: Content{Parts: []Part{{Text: text}}},
		})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", geminiBaseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("Embedding API 返回错误: %d, body: %s", resp.StatusCode, string(body))
	}

	var embedResp batchEmbedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	vectors := make([][]float64, 0, len(embedResp.Embeddings))
	for _, e := range embedResp.Embeddings {
		vectors = append(vectors, e.Values)
	}

	c.logger.Debug("向量化完成", zap.Int("count", len(vectors)))
	return vectors, nil
}
