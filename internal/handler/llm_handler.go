package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/client"
	"go.uber.org/zap"
)

// LLMHandler 生成网关处理器：把统一的生成请求转发给 Gemini
type LLMHandler struct {
	gemini *client.GeminiClient
	logger *zap.Logger
}

// NewLLMHandler 创建生成网关处理器
func NewLLMHandler(gemini *client.GeminiClient, logger *zap.Logger) *LLMHandler {
	return &LLMHandler{
		gemini: gemini,
		logger: logger,
	}
}

// Chat 文本生成。出参固定为 {ok, output} 或 {ok, error}，
// 上游失败时也返回 200，由调用方按 ok 字段判断。
func (h *LLMHandler) Chat(c *gin.Context) {
	var req client.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, client.GenerateResponse{OK: false, Error: "invalid request"})
		return
	}
	if req.Message == "" {
		c.JSON(400, client.GenerateResponse{OK: false, Error: "message cannot be empty"})
		return
	}

	cfg := &client.GenConfig{
		Temperature:     req.GenerationConfig.Temperature,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: req.GenerationConfig.MaxOutputTokens,
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 1024
	}

	output, err := h.gemini.GenerateContent(c.Request.Context(), req.System, req.Message, cfg)
	if err != nil {
		h.logger.Error("生成失败", zap.Error(err))
		c.JSON(200, client.GenerateResponse{OK: false, Error: "generation failed"})
		return
	}

	c.JSON(200, client.GenerateResponse{OK: true, Output: output})
}

// Health 健康检查
func (h *LLMHandler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "UP", "service": "llm-gateway"})
}
