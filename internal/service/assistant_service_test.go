package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mindcare/mindcare-go/internal/client"
	"github.com/mindcare/mindcare-go/internal/model"
	"github.com/mindcare/mindcare-go/internal/tools"
	"go.uber.org/zap"
)

type fakeModelCaller struct {
	responses []*client.GeminiResponse
	err       error
	calls     int
	lastSize  int
}

func (f *fakeModelCaller) GenerateWithTools(ctx context.Context, system string, contents []client.Content, decls []client.FunctionDeclaration, cfg *client.GenConfig) (*client.GeminiResponse, error) {
	f.calls++
	f.lastSize = len(contents)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func textResponse(text string) *client.GeminiResponse {
	return &client.GeminiResponse{
		Candidates: []client.Candidate{
			{Content: client.Content{Role: "model", Parts: []client.Part{{Text: text}}}},
		},
	}
}

func toolCallResponse(name string) *client.GeminiResponse {
	return &client.GeminiResponse{
		Candidates: []client.Candidate{
			{Content: client.Content{Role: "model", Parts: []client.Part{
				{FunctionCall: &client.FunctionCall{Name: name, Args: map[string]interface{}{}}},
			}}},
		},
	}
}

func newTestRegistry(t *testing.T, executed *int) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry(zap.NewNop())
	err := registry.Register(&tools.Tool{
		Name:        "get_emergency_resources",
		Description: "test tool",
		Handler: func(params map[string]interface{}) (interface{}, error) {
			*executed++
			return map[string]interface{}{"hotline": EmergencyHotline}, nil
		},
	})
	if err != nil {
		t.Fatalf("register tool failed: %v", err)
	}
	return registry
}

func TestProcessReturnsDirectAnswer(t *testing.T) {
	executed := 0
	caller := &fakeModelCaller{responses: []*client.GeminiResponse{textResponse("Chào bạn!")}}
	svc := NewAssistantService(caller, newTestRegistry(t, &executed), zap.NewNop())

	answer, err := svc.Process(context.Background(), &model.User{ID: 1}, "xin chào")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Chào bạn!" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if executed != 0 {
		t.Fatal("no tool should run for a direct answer")
	}
}

func TestProcessExecutesToolThenAnswers(t *testing.T) {
	executed := 0
	caller := &fakeModelCaller{responses: []*client.GeminiResponse{
		toolCallResponse("get_emergency_resources"),
		textResponse("Hotline là " + EmergencyHotline),
	}}
	svc := NewAssistantService(caller, newTestRegistry(t, &executed), zap.NewNop())

	answer, err := svc.Process(context.Background(), &model.User{ID: 1}, "tôi cần giúp đỡ khẩn cấp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected 1 tool execution, got %d", executed)
	}
	if caller.calls != 2 {
		t.Fatalf("expected 2 model rounds, got %d", caller.calls)
	}
	// 第二轮必须带上工具调用与执行结果两轮内容
	if caller.lastSize != 3 {
		t.Fatalf("expected 3 content turns on second round, got %d", caller.lastSize)
	}
	if answer == "" {
		t.Fatal("expected a final answer")
	}
}

func TestProcessStopsAfterMaxIterations(t *testing.T) {
	executed := 0
	caller := &fakeModelCaller{responses: []*client.GeminiResponse{
		toolCallResponse("get_emergency_resources"),
	}}
	svc := NewAssistantService(caller, newTestRegistry(t, &executed), zap.NewNop())

	_, err := svc.Process(context.Background(), &model.User{ID: 1}, "lặp mãi")
	if err == nil {
		t.Fatal("expected error when model keeps requesting tools")
	}
	if caller.calls != maxToolIterations {
		t.Fatalf("expected %d model rounds, got %d", maxToolIterations, caller.calls)
	}
}

func TestProcessFallsBackOnModelError(t *testing.T) {
	executed := 0
	caller := &fakeModelCaller{err: errors.New("upstream down")}
	svc := NewAssistantService(caller, newTestRegistry(t, &executed), zap.NewNop())

	answer, err := svc.Process(context.Background(), &model.User{ID: 1}, "xin chào")
	if err != nil {
		t.Fatalf("model error must degrade, not fail: %v", err)
	}
	if answer != assistantFallback {
		t.Fatalf("expected fallback answer, got %q", answer)
	}
}
