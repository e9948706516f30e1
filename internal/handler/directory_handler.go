package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mindcare/mindcare-go/internal/repository"
	"github.com/mindcare/mindcare-go/internal/service"
	"go.uber.org/zap"
)

// DirectoryHandler 医生目录、套餐与练习目录处理器
type DirectoryHandler struct {
	userRepo        *repository.UserRepository
	planRepo        *repository.PlanRepository
	exerciseService *service.ExerciseService
	logger          *zap.Logger
}

// NewDirectoryHandler 创建目录处理器
func NewDirectoryHandler(
	userRepo *repository.UserRepository,
	planRepo *repository.PlanRepository,
	exerciseService *service.ExerciseService,
	logger *zap.Logger,
) *DirectoryHandler {
	return &DirectoryHandler{
		userRepo:        userRepo,
		planRepo:        planRepo,
		exerciseService: exerciseService,
		logger:          logger,
	}
}

// ListDoctors 查询可预约医生，specialization 可选过滤
func (h *DirectoryHandler) ListDoctors(c *gin.Context) {
	specialization := c.Query("specialization")

	doctors, err := h.userRepo.ListAvailableDoctors(c.Request.Context(), specialization)
	if err != nil {
		h.logger.Error("查询医生目录失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được danh sách bác sĩ"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": doctors})
}

// ListPlans 查询套餐
func (h *DirectoryHandler) ListPlans(c *gin.Context) {
	plans, err := h.planRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("查询套餐失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được danh sách gói dịch vụ"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": plans})
}

// ListExercises 查询自助练习
func (h *DirectoryHandler) ListExercises(c *gin.Context) {
	exercises, err := h.exerciseService.List(c.Request.Context())
	if err != nil {
		h.logger.Error("查询练习失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không tải được danh sách bài tập"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": exercises})
}

// RecommendExercises 按感受推荐练习
func (h *DirectoryHandler) RecommendExercises(c *gin.Context) {
	var req struct {
		Feeling string `json:"feeling" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Thiếu mô tả cảm xúc"})
		return
	}

	exercises, err := h.exerciseService.Recommend(c.Request.Context(), req.Feeling, 3)
	if err != nil {
		h.logger.Error("推荐练习失败", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Không gợi ý được bài tập, vui lòng thử lại"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": exercises})
}
