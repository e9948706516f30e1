package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/client"
	"github.com/mindcare/mindcare-go/internal/config"
	"github.com/mindcare/mindcare-go/internal/handler"
	"github.com/mindcare/mindcare-go/internal/middleware"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/repository"
	"github.com/mindcare/mindcare-go/internal/risk"
	"github.com/mindcare/mindcare-go/internal/service"
	"github.com/mindcare/mindcare-go/internal/tools"
	"github.com/mindcare/mindcare-go/internal/vectorstore"
	"github.com/mindcare/mindcare-go/pkg/logger"
	"github.com/mindcare/mindcare-go/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig("configs/mindcare-api.yaml")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("mindcare-api 服务启动中...")

	ctx := context.Background()

	// 初始化 Postgres
	pool, err := repository.NewPool(cfg.Postgres)
	if err != nil {
		zapLogger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool); err != nil {
		zapLogger.Fatal("初始化数据库失败", zap.Error(err))
	}

	// 初始化 Redis
	rdb, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("连接 Redis 失败", zap.Error(err))
	}
	defer rdb.Close()

	// 存储层
	userRepo := repository.NewUserRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	emotionRepo := repository.NewEmotionRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	exerciseRepo := repository.NewExerciseRepository(pool)

	if err := planRepo.SeedDefaults(ctx); err != nil {
		zapLogger.Fatal("初始化套餐失败", zap.Error(err))
	}
	if err := exerciseRepo.SeedDefaults(ctx); err != nil {
		zapLogger.Fatal("初始化练习失败", zap.Error(err))
	}

	// 客户端
	genTimeout := time.Duration(cfg.Risk.TimeoutSeconds) * time.Second
	genClient := client.NewGenerationClient(cfg.Services.LLMGateway, cfg.Gemini.Model, genTimeout, zapLogger)
	geminiClient := client.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, zapLogger)
	embeddingClient := client.NewEmbeddingClient(cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, zapLogger)

	// 业务服务
	policy := risk.DefaultPolicy()
	authService := service.NewAuthService(userRepo, cfg.JWT, zapLogger)
	emotionService := service.NewEmotionService(emotionRepo, zapLogger)
	alertService := service.NewAlertService(alertRepo, service.NewRedisAlertPublisher(rdb), zapLogger)
	historyCache := service.NewHistoryCache(rdb)
	chatService := service.NewChatService(
		chatRepo, genClient, emotionService, alertService, historyCache,
		policy, cfg.Risk.Cumulative, genTimeout, zapLogger)

	exerciseIndex := vectorstore.NewExerciseIndex(zapLogger)
	exerciseService := service.NewExerciseService(exerciseRepo, embeddingClient, exerciseIndex, zapLogger)
	if err := exerciseService.BuildIndex(ctx); err != nil {
		// 索引失败只影响推荐，不阻塞启动
		zapLogger.Warn("构建练习索引失败", zap.Error(err))
	}

	// 工具注册中心与就医助手
	toolRegistry := tools.NewRegistry(zapLogger)
	if err := tools.RegisterCareTools(toolRegistry, userRepo, exerciseService, service.EmergencyHotline, zapLogger); err != nil {
		zapLogger.Fatal("注册工具失败", zap.Error(err))
	}
	assistantService := service.NewAssistantService(geminiClient, toolRegistry, zapLogger)

	// 医生端预警推送
	notifyService := service.NewNotifyService(zapLogger)
	go notifyService.RunAlertSubscriber(ctx, rdb)

	// 处理器
	authHandler := handler.NewAuthHandler(authService, zapLogger)
	chatHandler := handler.NewChatHandler(chatService, zapLogger)
	emotionHandler := handler.NewEmotionHandler(emotionService, policy, zapLogger)
	alertHandler := handler.NewAlertHandler(alertService, zapLogger)
	directoryHandler := handler.NewDirectoryHandler(userRepo, planRepo, exerciseService, zapLogger)
	assistantHandler := handler.NewAssistantHandler(assistantService, zapLogger)
	adminHandler := handler.NewAdminHandler(userRepo, chatRepo, emotionRepo, alertRepo, notifyService, zapLogger)
	wsHandler := handler.NewWebSocketHandler(notifyService, zapLogger)

	// 路由
	r := gin.Default()
	r.Use(middleware.CORS())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":         "UP",
			"service":        cfg.Server.Name,
			"online_doctors": notifyService.GetOnlineCount(),
		})
	})

	// 医生端预警推送（握手支持 token 查询参数）
	r.GET("/ws/alerts",
		middleware.JWTAuth(authService),
		middleware.RequireRoles(model.RoleDoctor, model.RoleAdmin),
		wsHandler.HandleAlerts)

	// 公开接口
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/auth/refresh", authHandler.Refresh)
	r.GET("/api/emergency/resources", chatHandler.EmergencyResources)
	r.GET("/api/plans", directoryHandler.ListPlans)

	auth := r.Group("/api", middleware.JWTAuth(authService))
	{
		auth.GET("/auth/me", authHandler.Me)

		auth.POST("/chat/send",
			middleware.ChatQuota(planRepo, chatRepo, zapLogger),
			chatHandler.SendMessage)
		auth.GET("/chat/sessions", chatHandler.ListSessions)
		auth.GET("/chat/sessions/:id/messages", chatHandler.GetMessages)
		auth.DELETE("/chat/sessions/:id", chatHandler.DeleteSession)
		auth.POST("/chat/sessions/:id/archive", chatHandler.ArchiveSession)

		auth.POST("/emotions/analyze", emotionHandler.Analyze)
		auth.POST("/emotions", emotionHandler.Log)
		auth.GET("/emotions/stats", emotionHandler.Stats)

		auth.GET("/alerts/my", alertHandler.MyAlerts)

		auth.GET("/doctors", directoryHandler.ListDoctors)
		auth.GET("/exercises", directoryHandler.ListExercises)
		auth.POST("/exercises/recommend", directoryHandler.RecommendExercises)

		auth.POST("/assistant/ask", assistantHandler.Ask)

		doctor := auth.Group("", middleware.RequireRoles(model.RoleDoctor, model.RoleAdmin))
		{
			doctor.GET("/alerts/active", alertHandler.ActiveAlerts)
			doctor.POST("/alerts/:id/resolve", alertHandler.Resolve)
		}

		admin := auth.Group("/admin", middleware.RequireRoles(model.RoleAdmin))
		{
			admin.GET("/overview", adminHandler.Overview)
			admin.PUT("/users/:id/active", adminHandler.SetUserActive)
		}
	}

	// 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zapLogger.Info("mindcare-api 服务启动成功",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("cumulativeRisk", cfg.Risk.Cumulative),
		zap.Int("tools", toolRegistry.Count()))

	if err := r.Run(addr); err != nil {
		zapLogger.Fatal("服务启动失败", zap.Error(err))
	}
}
