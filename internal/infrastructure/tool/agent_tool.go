package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	domainagent "github.com/ngoclaw/ngoclaw/gateway/internal/domain/agent"
	"github.com/ngoclaw/ngoclaw/gateway/internal/domain/service"
	domaintool "github.com/ngoclaw/ngoclaw/gateway/internal/domain/tool"
	apperrors "github.com/ngoclaw/ngoclaw/gateway/pkg/errors"
	"go.uber.org/zap"
)

// AgentToolDeps aggregates what the agent__ family needs to spawn and
// supervise child agents. Replaces subagent_tool.go's single-purpose
// SubAgentTool with the full spawn/check/collect/list/cancel/mailbox/task
// surface the agent__ prefix exposes.
type AgentToolDeps struct {
	Supervisor   *domainagent.Supervisor
	LLM          service.LLMClient
	ToolExecutor service.ToolExecutor
	DefaultModel string
	MaxSteps     int
	Timeout      time.Duration
	Logger       *zap.Logger
}

// AgentToolRouter implements domaintool.AgentRouter, dispatching every
// agent__-prefixed call to the appropriate verb handler. It also exposes
// Definitions() so the verbs can be listed to the model like any other
// tool family.
type AgentToolRouter struct {
	deps AgentToolDeps
}

// NewAgentToolRouter creates a router over deps, filling in sane defaults
// for MaxSteps/Timeout (mirroring subagent_tool.go's constructor).
func NewAgentToolRouter(deps AgentToolDeps) *AgentToolRouter {
	if deps.MaxSteps <= 0 {
		deps.MaxSteps = 25
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 3 * time.Minute
	}
	return &AgentToolRouter{deps: deps}
}

// Route implements domaintool.AgentRouter.
func (r *AgentToolRouter) Route(ctx context.Context, callerAgentID, name string, args map[string]interface{}) (map[string]interface{}, error) {
	verb := strings.TrimPrefix(name, "agent__")
	switch verb {
	case "spawn":
		return r.spawn(callerAgentID, args)
	case "check":
		return r.check(args)
	case "collect":
		return r.collect(args)
	case "list":
		return r.list()
	case "cancel":
		return r.cancel(args)
	case "send_message":
		return r.sendMessage(callerAgentID, args)
	case "check_inbox":
		return r.checkInbox(callerAgentID)
	case "task_create":
		return r.taskCreate(args)
	case "task_list":
		return r.taskList()
	case "task_complete":
		return r.taskComplete(callerAgentID, args)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown agent__ verb %q", verb))
	}
}

func (r *AgentToolRouter) spawn(callerAgentID string, args map[string]interface{}) (map[string]interface{}, error) {
	agentName, _ := args["agent"].(string)
	prompt, _ := args["prompt"].(string)
	if agentName == "" || prompt == "" {
		return nil, apperrors.NewValidationError("agent and prompt are required")
	}
	taskID, _ := args["task_id"].(string)

	depth := 0
	if callerAgentID != "" {
		if d, ok := r.deps.Supervisor.Depth(callerAgentID); ok {
			depth = d + 1
		}
	}

	handle, err := r.launch(agentName, "", prompt, depth)
	if err != nil {
		return nil, err
	}
	if taskID != "" {
		r.deps.Supervisor.TaskQueue().Claim(taskID, handle.ID)
	}
	return map[string]interface{}{
		"status":  "ok",
		"id":      handle.ID,
		"agent":   agentName,
		"message": fmt.Sprintf("spawned agent %s (%s)", handle.ID, agentName),
	}, nil
}

// launch registers a new AgentHandle and runs it to completion on its own
// goroutine, recording the result via SetResult without ever requiring a
// caller to block on a join (see domain/agent/handle.go).
func (r *AgentToolRouter) launch(agentName, systemPrompt, task string, depth int) (*domainagent.AgentHandle, error) {
	id := "agent_" + agentName + "_" + uuid.New().String()[:8]
	handle := domainagent.NewAgentHandle(id, agentName, depth)
	if err := r.deps.Supervisor.Register(handle); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.deps.Timeout)

	go func() {
		defer cancel()

		// Watch the cooperative abort token and cancel the run context the
		// moment it's set, so agent__cancel takes effect promptly even
		// though the run itself never receives the Supervisor lock.
		stopWatch := make(chan struct{})
		go func() {
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-stopWatch:
					return
				case <-ctx.Done():
					return
				case <-ticker.C:
					if handle.AbortSignal.Aborted() {
						cancel()
						return
					}
				}
			}
		}()
		defer close(stopWatch)

		cfg := service.AgentLoopConfig{
			DoomLoopThreshold: 3,
			MaxOutputChars:    32000,
			Temperature:       0.7,
			Model:             r.deps.DefaultModel,
		}
		loop := service.NewAgentLoop(r.deps.LLM, r.deps.ToolExecutor, cfg, r.deps.Logger.Named("agent:"+agentName))

		result, eventCh := loop.Run(ctx, systemPrompt, task, nil, "")
		for range eventCh {
			// Events aren't streamed to the parent; the parent polls via
			// agent__check / agent__collect instead.
		}

		status := domainagent.ExitCompleted
		failReason := ""
		if ctx.Err() != nil && handle.AbortSignal.Aborted() {
			status = domainagent.ExitCancelled
		} else if ctx.Err() != nil {
			status = domainagent.ExitFailed
			failReason = ctx.Err().Error()
		}

		handle.SetResult(domainagent.AgentResult{
			ID:         handle.ID,
			AgentName:  handle.AgentName,
			Output:     result.FinalContent,
			ExitStatus: status,
			FailReason: failReason,
		})
	}()

	return handle, nil
}

// check polls a spawned agent without blocking. If the agent has already
// finished, it delegates to collect so the caller gets the full result in
// one round trip, mirroring handle_check's call into handle_collect.
func (r *AgentToolRouter) check(args map[string]interface{}) (map[string]interface{}, error) {
	id, _ := args["id"].(string)
	if id == "" {
		return nil, apperrors.NewValidationError("id is required")
	}
	finished, ok := r.deps.Supervisor.IsFinished(id)
	if !ok {
		return nil, apperrors.NewUnknownAgentError(id)
	}
	if finished {
		return r.collect(args)
	}
	return map[string]interface{}{"status": "pending", "id": id}, nil
}

func (r *AgentToolRouter) collect(args map[string]interface{}) (map[string]interface{}, error) {
	id, _ := args["id"].(string)
	if id == "" {
		return nil, apperrors.NewValidationError("id is required")
	}
	handle, ok := r.deps.Supervisor.TakeIfFinished(id)
	if !ok {
		if _, registered := r.deps.Supervisor.IsFinished(id); !registered {
			return nil, apperrors.NewUnknownAgentError(id)
		}
		return map[string]interface{}{"status": "pending", "id": id}, nil
	}
	res := handle.Result()
	return map[string]interface{}{
		"status":      "completed",
		"id":          res.ID,
		"agent":       res.AgentName,
		"exit_status": string(res.ExitStatus),
		"output":      res.Output,
	}, nil
}

func (r *AgentToolRouter) list() (map[string]interface{}, error) {
	listing := r.deps.Supervisor.ListAgents()
	agents := make([]map[string]interface{}, 0, len(listing))
	for _, a := range listing {
		status := "running"
		if a.Status != "pending" {
			status = "finished"
		}
		agents = append(agents, map[string]interface{}{"id": a.ID, "agent": a.Name, "status": status})
	}
	return map[string]interface{}{
		"active_count":   r.deps.Supervisor.ActiveCount(),
		"max_concurrent": r.deps.Supervisor.MaxConcurrent(),
		"agents":         agents,
	}, nil
}

func (r *AgentToolRouter) cancel(args map[string]interface{}) (map[string]interface{}, error) {
	id, _ := args["agent_id"].(string)
	if id == "" {
		return nil, apperrors.NewValidationError("agent_id is required")
	}
	if !r.deps.Supervisor.Cancel(id) {
		return nil, apperrors.NewUnknownAgentError(id)
	}
	return map[string]interface{}{"agent_id": id, "cancelled": true}, nil
}

func (r *AgentToolRouter) sendMessage(callerAgentID string, args map[string]interface{}) (map[string]interface{}, error) {
	to, _ := args["agent_id"].(string)
	content, _ := args["content"].(string)
	if to == "" || content == "" {
		return nil, apperrors.NewValidationError("agent_id and content are required")
	}
	inbox, ok := r.deps.Supervisor.Inbox(to)
	if !ok {
		return nil, apperrors.NewUnknownAgentError(to)
	}
	inbox.Deliver(domainagent.Envelope{
		From:      callerAgentID,
		To:        to,
		Payload:   domainagent.TextPayload(content),
		Timestamp: time.Now(),
	})
	return map[string]interface{}{"output": fmt.Sprintf("message delivered to %s", to)}, nil
}

func (r *AgentToolRouter) checkInbox(callerAgentID string) (map[string]interface{}, error) {
	if callerAgentID == "" {
		return map[string]interface{}{"messages": []interface{}{}}, nil
	}
	inbox, ok := r.deps.Supervisor.Inbox(callerAgentID)
	if !ok {
		return map[string]interface{}{"messages": []interface{}{}}, nil
	}
	envelopes := inbox.Drain()
	messages := make([]map[string]interface{}, 0, len(envelopes))
	for _, e := range envelopes {
		messages = append(messages, map[string]interface{}{
			"from":    e.From,
			"kind":    string(e.Payload.Kind),
			"content": e.Payload.Content,
		})
	}
	return map[string]interface{}{"messages": messages, "count": len(messages)}, nil
}

func (r *AgentToolRouter) taskCreate(args map[string]interface{}) (map[string]interface{}, error) {
	subject, _ := args["subject"].(string)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required")
	}
	description, _ := args["description"].(string)
	dispatchAgent, _ := args["dispatch_agent"].(string)
	prompt, _ := args["prompt"].(string)
	blockedBy, _ := args["blocked_by"].(string)

	id := r.deps.Supervisor.TaskQueue().Create(subject, description, dispatchAgent, prompt)
	if blockedBy != "" {
		if err := r.deps.Supervisor.TaskQueue().AddDependency(id, blockedBy); err != nil {
			return nil, err
		}
	}
	return map[string]interface{}{"task_id": id}, nil
}

func (r *AgentToolRouter) taskList() (map[string]interface{}, error) {
	tasks := r.deps.Supervisor.TaskQueue().List()
	out := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, map[string]interface{}{
			"task_id": t.ID,
			"subject": t.Subject,
			"status":  string(t.Status),
			"owner":   t.Owner,
		})
	}
	return map[string]interface{}{"tasks": out, "count": len(out)}, nil
}

// taskComplete marks a task done and auto-dispatches any task that became
// runnable as a result, spawning its declared DispatchAgent with its
// declared Prompt — the fan-out half of the DAG scheduler.
func (r *AgentToolRouter) taskComplete(callerAgentID string, args map[string]interface{}) (map[string]interface{}, error) {
	taskID, _ := args["task_id"].(string)
	if taskID == "" {
		return nil, apperrors.NewValidationError("task_id is required")
	}

	queue := r.deps.Supervisor.TaskQueue()
	runnable := queue.Complete(taskID)

	depth := 0
	if callerAgentID != "" {
		if d, ok := r.deps.Supervisor.Depth(callerAgentID); ok {
			depth = d + 1
		}
	}

	var dispatched []map[string]interface{}
	for _, rid := range runnable {
		node, ok := queue.Get(rid)
		if !ok || node.DispatchAgent == "" {
			continue
		}
		handle, err := r.launch(node.DispatchAgent, "", node.Prompt, depth)
		if err != nil {
			r.deps.Logger.Warn("auto-dispatch failed",
				zap.String("task_id", rid),
				zap.Error(err),
			)
			continue
		}
		queue.Claim(rid, handle.ID)
		dispatched = append(dispatched, map[string]interface{}{
			"status":  "ok",
			"id":      handle.ID,
			"task_id": rid,
		})
	}

	resp := map[string]interface{}{
		"status":         "ok",
		"task_id":        taskID,
		"newly_runnable": runnable,
	}
	if len(dispatched) > 0 {
		resp["auto_dispatched"] = dispatched
	}
	return resp, nil
}

// Definitions lists the agent__ verbs as tool Definitions for the model,
// mirroring domaintool.Registry.List()'s shape without requiring these
// verbs to be registered as individually addressable Tool implementations
// (the Dispatcher routes agent__* directly to this router).
func (r *AgentToolRouter) Definitions() []domaintool.Definition {
	str := map[string]interface{}{"type": "string"}
	return []domaintool.Definition{
		{
			Name:        "agent__spawn",
			Description: "Spawn a new child agent to work on a prompt independently.",
			Parameters: objSchema(map[string]interface{}{
				"agent":   str,
				"prompt":  str,
				"task_id": str,
			}, "agent", "prompt"),
		},
		{
			Name:        "agent__check",
			Description: "Check whether a spawned agent has finished, without blocking.",
			Parameters:  objSchema(map[string]interface{}{"id": str}, "id"),
		},
		{
			Name:        "agent__collect",
			Description: "Retrieve a finished agent's result, removing it from the registry.",
			Parameters:  objSchema(map[string]interface{}{"id": str}, "id"),
		},
		{
			Name:        "agent__list",
			Description: "List all currently registered agents.",
			Parameters:  objSchema(map[string]interface{}{}),
		},
		{
			Name:        "agent__cancel",
			Description: "Signal a spawned agent to abort.",
			Parameters:  objSchema(map[string]interface{}{"agent_id": str}, "agent_id"),
		},
		{
			Name:        "agent__send_message",
			Description: "Deliver a text message into another agent's mailbox.",
			Parameters:  objSchema(map[string]interface{}{"agent_id": str, "content": str}, "agent_id", "content"),
		},
		{
			Name:        "agent__check_inbox",
			Description: "Drain and return this agent's own pending mailbox messages.",
			Parameters:  objSchema(map[string]interface{}{}),
		},
		{
			Name:        "agent__task_create",
			Description: "Create a task node in the shared DAG, optionally blocked on another task.",
			Parameters: objSchema(map[string]interface{}{
				"subject":        str,
				"description":    str,
				"dispatch_agent": str,
				"prompt":         str,
				"blocked_by":     str,
			}, "subject"),
		},
		{
			Name:        "agent__task_list",
			Description: "List every task in the shared DAG and its status.",
			Parameters:  objSchema(map[string]interface{}{}),
		},
		{
			Name:        "agent__task_complete",
			Description: "Mark a task complete, auto-dispatching any task this unblocks.",
			Parameters:  objSchema(map[string]interface{}{"task_id": str}, "task_id"),
		},
	}
}

// objSchema builds a minimal JSON-schema object with the given properties
// and (optional) required field names.
func objSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// agentVerbTool adapts one agent__ verb to domaintool.Tool so it is
// discoverable through the ordinary Registry/Executor listing path (used by
// system-prompt assembly and the legacy Executor), even though the
// Dispatcher always resolves agent__-prefixed calls via AgentToolRouter
// directly and never reaches this Tool's Execute in practice.
type agentVerbTool struct {
	def    domaintool.Definition
	router *AgentToolRouter
}

func (t *agentVerbTool) Name() string                   { return t.def.Name }
func (t *agentVerbTool) Description() string            { return t.def.Description }
func (t *agentVerbTool) Kind() domaintool.Kind           { return domaintool.KindExecute }
func (t *agentVerbTool) Schema() map[string]interface{}  { return t.def.Parameters }
func (t *agentVerbTool) Execute(ctx context.Context, args map[string]interface{}) (*domaintool.Result, error) {
	out, err := t.router.Route(ctx, "", t.def.Name, args)
	if err != nil {
		return nil, err
	}
	return wrappedAgentResult(out), nil
}

func wrappedAgentResult(out map[string]interface{}) *domaintool.Result {
	if output, ok := out["output"].(string); ok {
		return &domaintool.Result{Output: output, Success: true, Metadata: out}
	}
	return &domaintool.Result{Output: fmt.Sprintf("%v", out), Success: true, Metadata: out}
}

// RegisterAgentTools registers every agent__ verb as a discoverable Tool.
func RegisterAgentTools(router *AgentToolRouter, registry domaintool.Registry, logger *zap.Logger) int {
	registered := 0
	for _, def := range router.Definitions() {
		if err := registry.Register(&agentVerbTool{def: def, router: router}); err != nil {
			logger.Warn("failed to register agent__ tool", zap.String("tool", def.Name), zap.Error(err))
			continue
		}
		registered++
	}
	return registered
}
