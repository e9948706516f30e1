package tools

import (
	"fmt"
	"sync"

	"github.com/mindcare/mindcare-go/internal/client"
	"go.uber.org/zap"
)

// Registry 工具注册中心
type Registry struct {
	tools  map[string]*Tool
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewRegistry 创建工具注册中心
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register 注册工具
func (r *Registry) Register(tool *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool already registered: %s", tool.Name)
	}

	r.tools[tool.Name] = tool
	r.logger.Info("工具已注册", zap.String("name", tool.Name))
	return nil
}

// Get 获取工具
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// List 列出所有工具
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// Declarations 获取所有工具的函数声明（传给模型）
func (r *Registry) Declarations() []client.FunctionDeclaration {
	tools := r.List()
	decls := make([]client.FunctionDeclaration, len(tools))
	for i, tool := range tools {
		decls[i] = tool.ToDeclaration()
	}
	return decls
}

// Execute 执行工具调用
func (r *Registry) Execute(name string, params map[string]interface{}) (interface{}, error) {
	r.logger.Info("执行工具调用", zap.String("tool", name))

	tool, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	result, err := tool.Execute(params)
	if err != nil {
		r.logger.Error("工具执行失败", zap.String("tool", name), zap.Error(err))
		return nil, err
	}

	r.logger.Info("工具执行成功", zap.String("tool", name))
	return result, nil
}

// Count 获取注册的工具数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
