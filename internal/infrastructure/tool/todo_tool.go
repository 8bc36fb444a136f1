package tool

import (
	"context"
	"fmt"
	"sync"

	domaintodo "github.com/ngoclaw/ngoclaw/gateway/internal/domain/todo"
	domaintool "github.com/ngoclaw/ngoclaw/gateway/internal/domain/tool"
	"go.uber.org/zap"
)

// TodoTool implements the todo__ family (init/add/done/list) over a single
// per-agent domaintodo.TodoList. Replaces plan_tool.go's file-backed Plan
// with the shared, render_for_model-capable checklist the spec names.
type TodoTool struct {
	mu     sync.Mutex
	list   *domaintodo.TodoList
	logger *zap.Logger
}

// NewTodoTool creates the tool with an empty list (no goal set yet).
func NewTodoTool(logger *zap.Logger) *TodoTool {
	return &TodoTool{list: domaintodo.New(""), logger: logger}
}

func (t *TodoTool) Name() string         { return "todo__manage" }
func (t *TodoTool) Kind() domaintool.Kind { return domaintool.KindThink }

func (t *TodoTool) Description() string {
	return "Manage this agent's goal and checklist. " +
		"action='init' (goal) starts a fresh list; 'add' (desc) appends an item; " +
		"'done' (id) marks an item complete; 'list' renders the current goal and checklist."
}

func (t *TodoTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type": "string",
				"enum": []string{"init", "add", "done", "list"},
			},
			"goal": map[string]interface{}{
				"type":        "string",
				"description": "Goal text (required for 'init').",
			},
			"desc": map[string]interface{}{
				"type":        "string",
				"description": "Item description (required for 'add').",
			},
			"id": map[string]interface{}{
				"type":        "integer",
				"description": "Item id (required for 'done').",
			},
		},
		"required": []string{"action"},
	}
}

func (t *TodoTool) Execute(ctx context.Context, args map[string]interface{}) (*domaintool.Result, error) {
	action, _ := args["action"].(string)

	t.mu.Lock()
	defer t.mu.Unlock()

	switch action {
	case "init":
		goal, _ := args["goal"].(string)
		if goal == "" {
			return &domaintool.Result{Output: "Error: 'goal' is required for init", Success: false}, nil
		}
		t.list.Reset(goal)
		t.logger.Info("todo list initialized", zap.String("goal", goal))
		return &domaintool.Result{Output: fmt.Sprintf("Initialized todo list for goal: %s", goal), Display: t.list.RenderForModel(), Success: true}, nil

	case "add":
		desc, _ := args["desc"].(string)
		if desc == "" {
			return &domaintool.Result{Output: "Error: 'desc' is required for add", Success: false}, nil
		}
		id := t.list.Add(desc)
		return &domaintool.Result{Output: fmt.Sprintf("Added item %d: %s", id, desc), Display: t.list.RenderForModel(), Success: true}, nil

	case "done":
		id, ok := args["id"].(float64)
		if !ok {
			return &domaintool.Result{Output: "Error: 'id' is required for done", Success: false}, nil
		}
		if !t.list.MarkDone(int(id)) {
			return &domaintool.Result{Output: fmt.Sprintf("Error: no item with id %d", int(id)), Success: false}, nil
		}
		return &domaintool.Result{Output: fmt.Sprintf("Marked item %d done", int(id)), Display: t.list.RenderForModel(), Success: true}, nil

	case "list":
		return &domaintool.Result{Output: t.list.RenderForModel(), Success: true}, nil

	default:
		return &domaintool.Result{Output: "Error: action must be one of init, add, done, list", Success: false}, nil
	}
}

// RenderForModel exposes the live checklist for system-prompt injection.
func (t *TodoTool) RenderForModel() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.list.RenderForModel()
}
