package tools

import (
	"fmt"

	"github.com/mindcare/mindcare-go/internal/client"
)

// Tool 工具定义（Gemini Function Calling）
type Tool struct {
	Name        string          `json:"name"`       // 工具名称
	Description string          `json:"description"` // 工具描述
	Parameters  ParameterSchema `json:"parameters"`  // 参数定义
	Handler     ToolHandler     `json:"-"`           // 工具处理函数（不序列化）
}

// ParameterSchema JSON Schema 格式的参数定义
type ParameterSchema struct {
	Type       string              `json:"type"`       // "object"
	Properties map[string]Property `json:"properties"` // 参数属性
	Required   []string            `json:"required,omitempty"`
}

// Property 参数属性
type Property struct {
	Type        string   `json:"type"`           // string, number, boolean, array, object
	Description string   `json:"description"`     // 参数描述
	Enum        []string `json:"enum,omitempty"` // 枚举值
}

// ToolHandler 工具处理函数
type ToolHandler func(params map[string]interface{}) (interface{}, error)

// Execute 执行工具
func (t *Tool) Execute(params map[string]interface{}) (interface{}, error) {
	if t.Handler == nil {
		return nil, fmt.Errorf("tool handler not implemented: %s", t.Name)
	}
	return t.Handler(params)
}

// ToDeclaration 转换为 Gemini 的函数声明格式
func (t *Tool) ToDeclaration() client.FunctionDeclaration {
	decl := client.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
	}
	if len(t.Parameters.Properties) > 0 {
		decl.Parameters = t.Parameters
	}
	return decl
}

// StringParam 从参数表取字符串参数，缺省时返回 fallback
func StringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
