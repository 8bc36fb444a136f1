package tool

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestTodoToolInitAddDoneList(t *testing.T) {
	tool := NewTodoTool(zap.NewNop())
	ctx := context.Background()

	if _, err := tool.Execute(ctx, map[string]interface{}{"action": "init", "goal": "ship it"}); err != nil {
		t.Fatalf("init: %v", err)
	}

	res, err := tool.Execute(ctx, map[string]interface{}{"action": "add", "desc": "write code"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !res.Success {
		t.Fatalf("add not successful: %+v", res)
	}

	res, err = tool.Execute(ctx, map[string]interface{}{"action": "done", "id": float64(1)})
	if err != nil || !res.Success {
		t.Fatalf("done: res=%+v err=%v", res, err)
	}

	res, err = tool.Execute(ctx, map[string]interface{}{"action": "list"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(res.Output, "Goal: ship it") || !strings.Contains(res.Output, "✓ 1. write code") {
		t.Fatalf("unexpected render: %q", res.Output)
	}
}

func TestTodoToolUnknownActionFails(t *testing.T) {
	tool := NewTodoTool(zap.NewNop())
	res, err := tool.Execute(context.Background(), map[string]interface{}{"action": "bogus"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure for unknown action")
	}
}

func TestTodoToolDoneUnknownIDFails(t *testing.T) {
	tool := NewTodoTool(zap.NewNop())
	ctx := context.Background()
	tool.Execute(ctx, map[string]interface{}{"action": "init", "goal": "g"})
	res, _ := tool.Execute(ctx, map[string]interface{}{"action": "done", "id": float64(99)})
	if res.Success {
		t.Fatal("expected failure for unknown id")
	}
}
