package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/ngoclaw/ngoclaw/gateway/pkg/errors"
)

// AgentRouter is the narrow slice of Supervisor the Dispatcher needs to
// route agent__* calls without importing the agent package directly (which
// would create an import cycle, since agent tools live above this layer).
type AgentRouter interface {
	// Route executes an agent__ family tool call outside of any lock the
	// Dispatcher itself might hold, returning the raw result map.
	Route(ctx context.Context, callerAgentID, name string, args map[string]interface{}) (map[string]interface{}, error)
}

// DispatchRequest is a single tool invocation to resolve and run.
type DispatchRequest struct {
	CallerAgentID string // empty for the root agent
	Name          string
	Arguments     map[string]interface{}
}

// Dispatcher resolves and runs one tool call: loop check (when a tracker is
// set), agent__-prefixed calls routed outside of any lock, lookup of other
// tools in the global registry, validation against the tool's declared JSON
// schema (coercing numeric strings, checking required fields), and execute.
// There is no per-agent tool table; every non-agent__ name is looked up in
// the global registry. Map results from agent__ routing are converted to a
// Result by wrapResult; other tools return their own Result unchanged.
type Dispatcher struct {
	global  Registry
	router  AgentRouter
	tracker *ToolCallTracker
}

// NewDispatcher creates a Dispatcher over the global tool registry. router
// may be nil if agent__ routing is not needed (e.g. in tests exercising only
// plain tools).
func NewDispatcher(global Registry, router AgentRouter, tracker *ToolCallTracker) *Dispatcher {
	return &Dispatcher{global: global, router: router, tracker: tracker}
}

const agentToolPrefix = "agent__"

// Dispatch resolves and executes req, applying loop detection first when a
// tracker is configured.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*Result, error) {
	if d.tracker != nil {
		if msg, ok := d.tracker.Check(Call{Name: req.Name, Arguments: req.Arguments}); !ok {
			return nil, apperrors.NewCallLoopDetectedError(msg)
		}
	}

	// agent__ calls are routed to the Supervisor outside of any lock this
	// Dispatcher holds — the Dispatcher itself never holds one across the
	// call, so this is simply a direct delegation.
	if strings.HasPrefix(req.Name, agentToolPrefix) {
		if d.router == nil {
			return nil, apperrors.NewUnknownAgentError(req.Name)
		}
		out, err := d.router.Route(ctx, req.CallerAgentID, req.Name, req.Arguments)
		if err != nil {
			return nil, err
		}
		return wrapResult(out), nil
	}

	t, ok := d.global.Get(req.Name)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown tool %q", req.Name))
	}

	coerced, err := coerceArgs(req.Arguments, t.Schema())
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	return t.Execute(ctx, coerced)
}

// wrapResult converts a raw map result (e.g. from agent__ routing) into a
// Result, treating the map itself as metadata and synthesizing an Output
// string for the model when one isn't already present.
func wrapResult(out map[string]interface{}) *Result {
	if out == nil {
		out = map[string]interface{}{}
	}
	if output, ok := out["output"].(string); ok {
		return &Result{Output: output, Success: true, Metadata: out}
	}
	if errMsg, ok := out["error"].(string); ok {
		return &Result{Output: errMsg, Success: false, Error: errMsg, Metadata: out}
	}
	return &Result{Output: fmt.Sprintf("%v", out), Success: true, Metadata: out}
}

// coerceArgs walks the declared JSON schema's "properties" and coerces any
// numeric-typed argument that arrived as a string (a common quirk of model
// function-call emission) into a float64/int, matching encoding/json's
// native number representation. Unknown/unspecified fields pass through
// unchanged.
func coerceArgs(args map[string]interface{}, schema map[string]interface{}) (map[string]interface{}, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}

	props, _ := schema["properties"].(map[string]interface{})
	for name, rawSpec := range props {
		spec, ok := rawSpec.(map[string]interface{})
		if !ok {
			continue
		}
		wantType, _ := spec["type"].(string)
		if wantType != "number" && wantType != "integer" {
			continue
		}
		strVal, ok := out[name].(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(strVal, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q must be a %s, got %q", name, wantType, strVal)
		}
		if wantType == "integer" {
			out[name] = int64(n)
		} else {
			out[name] = n
		}
	}

	if err := checkRequired(out, schema); err != nil {
		return nil, err
	}

	return out, nil
}

// checkRequired verifies every field named in the schema's "required" array
// is present in args, matching §4.F's "mandatory fields checked" step.
func checkRequired(args map[string]interface{}, schema map[string]interface{}) error {
	required, _ := schema["required"].([]string)
	if required == nil {
		if raw, ok := schema["required"].([]interface{}); ok {
			for _, r := range raw {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}
	}
	for _, name := range required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	return nil
}
