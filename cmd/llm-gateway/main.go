package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/client"
	"github.com/mindcare/mindcare-go/internal/config"
	"github.com/mindcare/mindcare-go/internal/handler"
	"github.com/mindcare/mindcare-go/internal/middleware"
	"github.com/mindcare/mindcare-go/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig("configs/llm-gateway.yaml")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("llm-gateway 服务启动中...")

	// 初始化 Gemini 客户端
	geminiClient := client.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, zapLogger)
	llmHandler := handler.NewLLMHandler(geminiClient, zapLogger)

	// 初始化路由
	r := gin.Default()
	r.Use(middleware.CORS())

	r.POST("/api/llm/chat", llmHandler.Chat)
	r.GET("/api/health", llmHandler.Health)

	// 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zapLogger.Info("llm-gateway 服务启动成功",
		zap.Int("port", cfg.Server.Port),
		zap.String("model", cfg.Gemini.Model))

	if err := r.Run(addr); err != nil {
		zapLogger.Fatal("服务启动失败", zap.Error(err))
	}
}
