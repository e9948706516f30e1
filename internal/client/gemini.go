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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient Gemini 客户端
type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiClient 创建 Gemini 客户端
func NewGeminiClient(apiKey, model string, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Part 内容片段
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Content 一轮内容
type Content struct {
	Role  string `json:"role,omitempty"` // user, model, function
	Parts []Part `json:"parts"`
}

// FunctionCall 模型发起的工具调用
type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// FunctionResponse 工具执行结果回传
type FunctionResponse struct {
	Name     string      `json:"name"`
	Response interface{} `json:"response"`
}

// FunctionDeclaration 工具定义（传给模型）
type FunctionDeclaration struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters,omitempty"`
}

// GenConfig 生成参数
type GenConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// geminiRequest generateContent 请求体
type geminiRequest struct {
	Contents          []Content   `json:"contents"`
	SystemInstruction *Content    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenConfig  `json:"generationConfig,omitempty"`
	Tools             []toolGroup `json:"tools,omitempty"`
}

type toolGroup struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// Candidate 候选结果
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// GeminiResponse generateContent 响应体
type GeminiResponse struct {
	Candidates    []Candidate `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Text 取第一个候选的文本内容
func (r *GeminiResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	for _, part := range r.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text
		}
	}
	return ""
}

// FunctionCalls 取第一个候选中的全部工具调用
func (r *GeminiResponse) FunctionCalls() []FunctionCall {
	if len(r.Candidates) == 0 {
		return nil
	}
	var calls []FunctionCall
	for _, part := range r.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, *part.FunctionCall)
		}
	}
	return calls
}

// GenerateContent 单轮生成
func (c *GeminiClient) GenerateContent(ctx context.Context, system, message string, cfg *GenConfig) (string, error) {
	req := geminiRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: message}}},
		},
		GenerationConfig: cfg,
	}
	if system != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: system}}}
	}

	resp, err := c.generate(ctx, req)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini 返回空内容")
	}
	return text, nil
}

// GenerateWithTools 带工具定义的多轮生成，返回完整响应供调用方检查工具调用
func (c *GeminiClient) GenerateWithTools(ctx context.Context, system string, contents []Content, decls []FunctionDeclaration, cfg *GenConfig) (*GeminiResponse, error) {
	req := geminiRequest{
		Contents:         contents,
		GenerationConfig: cfg,
	}
	if system != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: system}}}
	}
	if len(decls) > 0 {
		req.Tools = []toolGroup{{FunctionDeclarations: decls}}
	}

	return c.generate(ctx, req)
}

// generate 调用 generateContent 接口
func (c *GeminiClient) generate(ctx context.Context, reqBody geminiRequest) (*GeminiResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", geminiBaseURL, c.model, c.apiKey)
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
		return nil, fmt.Errorf("Gemini API 返回错误: %d, body: %s", resp.StatusCode, string(body))
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("Gemini 未返回候选结果")
	}

	return &geminiResp, nil
}
