package tool

import (
	"context"
	"fmt"
	"time"

	domainagent "github.com/ngoclaw/ngoclaw/gateway/internal/domain/agent"
	domaintool "github.com/ngoclaw/ngoclaw/gateway/internal/domain/tool"
	apperrors "github.com/ngoclaw/ngoclaw/gateway/pkg/errors"
	"go.uber.org/zap"
)

// escalationTimeout mirrors original_source's ESCALATION_TIMEOUT: 5 minutes.
const escalationTimeout = 300 * time.Second

// DirectPrompter answers a user__ interaction at depth 0, where there is a
// real root operator to ask. The interactive TTY front-ends (REPL/TUI) wire
// one in; when nil, direct prompts auto-answer with a logged default —
// there is no direct Go teacher equivalent of the inquire crate's
// interactive terminal widgets used at this point in the original
// implementation, so a headless fallback takes its place.
type DirectPrompter interface {
	Ask(ctx context.Context, question string, options []string) (string, error)
	Confirm(ctx context.Context, question string, defaultValue bool) (bool, error)
	Input(ctx context.Context, prompt string) (string, error)
	Checkbox(ctx context.Context, question string, options []string) ([]string, error)
}

// callerDepthFn resolves an agent id to its current spawn depth. Depth 0
// (or an unrecognized/root caller) is handled directly; depth > 0 escalates
// to the root EscalationQueue.
type callerDepthFn func(agentID string) int

// UserTool implements the user__ family (ask/confirm/input/checkbox).
type UserTool struct {
	escalations *domainagent.EscalationQueue
	prompter    DirectPrompter
	depthOf     callerDepthFn
	logger      *zap.Logger
}

// NewUserTool creates the tool. prompter may be nil (headless fallback).
func NewUserTool(escalations *domainagent.EscalationQueue, prompter DirectPrompter, depthOf callerDepthFn, logger *zap.Logger) *UserTool {
	return &UserTool{escalations: escalations, prompter: prompter, depthOf: depthOf, logger: logger}
}

func (t *UserTool) Name() string         { return "user__interact" }
func (t *UserTool) Kind() domaintool.Kind { return domaintool.KindCommunicate }

func (t *UserTool) Description() string {
	return "Ask the user a question. action='ask' (question, options) offers a choice, " +
		"'confirm' (question) asks yes/no, 'input' (question) asks for free text, " +
		"'checkbox' (question, options) asks for multiple selections. " +
		"At nesting depth 0 this is answered directly; deeper agents escalate to the root user " +
		"and may time out after 5 minutes."
}

func (t *UserTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type": "string",
				"enum": []string{"ask", "confirm", "input", "checkbox"},
			},
			"question": map[string]interface{}{"type": "string"},
			"options": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"default": map[string]interface{}{
				"type":        "boolean",
				"description": "Default answer for 'confirm' (default: true).",
			},
		},
		"required": []string{"action", "question"},
	}
}

// callerAgentID is threaded in via the args map by the dispatcher layer
// under this reserved key, mirroring subagent_tool.go's use of a context
// value for depth — here it arrives as an argument because the Dispatcher
// resolves agent__ routing, not user__, outside of any lock, and user__
// calls are ordinary registry lookups that don't carry a caller-identity
// context key of their own.
const callerAgentIDArg = "__caller_agent_id"

func (t *UserTool) Execute(ctx context.Context, args map[string]interface{}) (*domaintool.Result, error) {
	action, _ := args["action"].(string)
	question, _ := args["question"].(string)
	if question == "" {
		return &domaintool.Result{Output: "Error: 'question' is required", Success: false}, nil
	}
	options := stringSlice(args["options"])

	callerAgentID, _ := args[callerAgentIDArg].(string)
	depth := 0
	if t.depthOf != nil {
		depth = t.depthOf(callerAgentID)
	}

	qualified := fmt.Sprintf("[%s] %s", action, question)

	if depth == 0 {
		return t.handleDirect(ctx, action, question, options, args)
	}
	return t.handleEscalated(ctx, callerAgentID, qualified, options)
}

func (t *UserTool) handleDirect(ctx context.Context, action, question string, options []string, args map[string]interface{}) (*domaintool.Result, error) {
	if t.prompter == nil {
		t.logger.Warn("direct user__ prompt answered by headless fallback",
			zap.String("action", action),
			zap.String("question", question),
		)
		return t.headlessFallback(action, options, args), nil
	}

	switch action {
	case "ask":
		answer, err := t.prompter.Ask(ctx, question, options)
		if err != nil {
			return &domaintool.Result{Output: err.Error(), Success: false, Error: err.Error()}, nil
		}
		return &domaintool.Result{Output: answer, Success: true, Metadata: map[string]interface{}{"answer": answer}}, nil
	case "confirm":
		def, _ := args["default"].(bool)
		answer, err := t.prompter.Confirm(ctx, question, def)
		if err != nil {
			return &domaintool.Result{Output: err.Error(), Success: false, Error: err.Error()}, nil
		}
		return &domaintool.Result{Output: fmt.Sprintf("%v", answer), Success: true, Metadata: map[string]interface{}{"answer": answer}}, nil
	case "input":
		answer, err := t.prompter.Input(ctx, question)
		if err != nil {
			return &domaintool.Result{Output: err.Error(), Success: false, Error: err.Error()}, nil
		}
		return &domaintool.Result{Output: answer, Success: true, Metadata: map[string]interface{}{"answer": answer}}, nil
	case "checkbox":
		answer, err := t.prompter.Checkbox(ctx, question, options)
		if err != nil {
			return &domaintool.Result{Output: err.Error(), Success: false, Error: err.Error()}, nil
		}
		return &domaintool.Result{Output: fmt.Sprintf("%v", answer), Success: true, Metadata: map[string]interface{}{"answer": answer}}, nil
	default:
		return &domaintool.Result{Output: "Error: action must be one of ask, confirm, input, checkbox", Success: false}, nil
	}
}

// headlessFallback answers without a real operator present: confirm
// defaults to its declared default (true if unset), ask/checkbox pick the
// first offered option(s), input returns empty. Every fallback is logged
// so the behavior is auditable.
func (t *UserTool) headlessFallback(action string, options []string, args map[string]interface{}) *domaintool.Result {
	switch action {
	case "confirm":
		def := true
		if d, ok := args["default"].(bool); ok {
			def = d
		}
		return &domaintool.Result{Output: fmt.Sprintf("%v", def), Success: true, Metadata: map[string]interface{}{"answer": def, "fallback": true}}
	case "ask":
		answer := ""
		if len(options) > 0 {
			answer = options[0]
		}
		return &domaintool.Result{Output: answer, Success: true, Metadata: map[string]interface{}{"answer": answer, "fallback": true}}
	case "checkbox":
		return &domaintool.Result{Output: "[]", Success: true, Metadata: map[string]interface{}{"answer": []string{}, "fallback": true}}
	case "input":
		return &domaintool.Result{Output: "", Success: true, Metadata: map[string]interface{}{"answer": "", "fallback": true}}
	default:
		return &domaintool.Result{Output: "Error: unknown action", Success: false}
	}
}

// handleEscalated submits an EscalationRequest to the root queue and awaits
// a reply for up to escalationTimeout, matching
// original_source/src/function/user_interaction.rs's three outcomes.
func (t *UserTool) handleEscalated(ctx context.Context, callerAgentID, question string, options []string) (*domaintool.Result, error) {
	replyCh := make(chan string, 1)
	req := &domainagent.EscalationRequest{
		ID:            domainagent.NewEscalationID(),
		FromAgentID:   callerAgentID,
		FromAgentName: callerAgentID,
		Question:      question,
		Options:       options,
		ReplyCh:       replyCh,
	}
	id := t.escalations.Submit(req)

	select {
	case reply, ok := <-replyCh:
		if !ok {
			err := apperrors.NewEscalationCancelledError()
			return &domaintool.Result{
				Output:  err.Message,
				Success: false,
				Error:   err.Message,
				Metadata: map[string]interface{}{
					"error":    err.Message,
					"fallback": "Make your best judgment and proceed",
				},
			}, nil
		}
		return &domaintool.Result{Output: reply, Success: true, Metadata: map[string]interface{}{"answer": reply, "escalation_id": id}}, nil

	case <-time.After(escalationTimeout):
		t.escalations.Take(id)
		err := apperrors.NewEscalationTimeoutError(int(escalationTimeout.Seconds()))
		return &domaintool.Result{
			Output:  err.Message,
			Success: false,
			Error:   err.Message,
			Metadata: map[string]interface{}{
				"error":    err.Message,
				"fallback": "Make your best judgment and proceed",
			},
		}, nil

	case <-ctx.Done():
		t.escalations.Take(id)
		return nil, ctx.Err()
	}
}

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
