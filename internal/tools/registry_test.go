package tools

import (
	"testing"

	"go.uber.org/zap"
)

func echoTool() *Tool {
	return &Tool{
		Name:        "echo",
		Description: "echoes input",
		Parameters: ParameterSchema{
			Type: "object",
			Properties: map[string]Property{
				"text": {Type: "string", Description: "text to echo"},
			},
			Required: []string{"text"},
		},
		Handler: func(params map[string]interface{}) (interface{}, error) {
			return StringParam(params, "text", ""), nil
		},
	}
}

func TestRegisterAndExecute(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	if err := registry.Register(echoTool()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := registry.Execute("echo", map[string]interface{}{"text": "hello"})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result != "hello" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.Register(echoTool())

	if err := registry.Register(echoTool()); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
	if registry.Count() != 1 {
		t.Fatalf("expected 1 tool, got %d", registry.Count())
	}
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	if err := registry.Register(&Tool{}); err == nil {
		t.Fatal("expected error for empty tool name")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	if _, err := registry.Execute("missing", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestDeclarationsCarrySchema(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.Register(echoTool())

	decls := registry.Declarations()
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	if decls[0].Name != "echo" || decls[0].Parameters == nil {
		t.Fatalf("declaration missing name or schema: %+v", decls[0])
	}
}

func TestStringParamFallback(t *testing.T) {
	params := map[string]interface{}{"a": "x", "b": 1}
	if got := StringParam(params, "a", "d"); got != "x" {
		t.Fatalf("expected x, got %s", got)
	}
	if got := StringParam(params, "b", "d"); got != "d" {
		t.Fatalf("non-string value must fall back, got %s", got)
	}
	if got := StringParam(params, "c", "d"); got != "d" {
		t.Fatalf("missing key must fall back, got %s", got)
	}
}
