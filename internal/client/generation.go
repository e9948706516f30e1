package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// GenerationClient 生成服务客户端（llm-gateway）
type GenerationClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGenerationClient 创建生成服务客户端
func NewGenerationClient(baseURL, model string, timeout time.Duration, logger *zap.Logger) *GenerationClient {
	return &GenerationClient{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GenerationConfig 生成参数
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`
}

// GenerateRequest 生成请求
type GenerateRequest struct {
	Message          string           `json:"message"`
	System           string           `json:"system,omitempty"`
	Model            string           `json:"model,omitempty"`
	GenerationConfig GenerationConfig `json:"generation_config,omitempty"`
}

// GenerateResponse 生成响应
type GenerateResponse struct {
	OK     bool   `json:"ok"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Generate 调用生成服务。任何非 2xx、ok=false 或空输出都视为失败，
// 由调用方决定降级文案。
func (c *GenerationClient) Generate(ctx context.Context, system, message string, cfg GenerationConfig) (string, error) {
	reqBody := GenerateRequest{
		Message:          message,
		System:           system,
		Model:            c.model,
		GenerationConfig: cfg,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	url := c.baseURL + "/api/llm/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求生成服务失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("生成服务返回错误: %d, body: %s", resp.StatusCode, string(body))
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	if !genResp.OK || genResp.Output == "" {
		return "", fmt.Errorf("生成服务返回失败: %s", genResp.Error)
	}

	return genResp.Output, nil
}
