package tool

import (
	"context"
	"fmt"
	"strings"

	domaintool "github.com/ngoclaw/ngoclaw/gateway/internal/domain/tool"
	apperrors "github.com/ngoclaw/ngoclaw/gateway/pkg/errors"
	"go.uber.org/zap"
)

// MCPForwardTool implements the mcp_invoke_<server> / mcp_search_<server> /
// mcp_describe_<server> naming contract over the already-discovered
// MCPAdapter/MCPManager collaborators: invoke calls a named tool, search
// lists tool names matching a substring, describe returns one tool's full
// schema. This is a thin facade — all MCP transport remains
// mcp_adapter.go's JSON-RPC client.
type MCPForwardTool struct {
	manager *MCPManager
	verb    string // "invoke", "search", or "describe"
	server  string
	logger  *zap.Logger
}

// NewMCPForwardTool creates one of the three per-server forwarding tools.
func NewMCPForwardTool(manager *MCPManager, verb, server string, logger *zap.Logger) *MCPForwardTool {
	return &MCPForwardTool{manager: manager, verb: verb, server: server, logger: logger}
}

func (t *MCPForwardTool) Name() string {
	return fmt.Sprintf("mcp_%s_%s", t.verb, t.server)
}

func (t *MCPForwardTool) Kind() domaintool.Kind { return domaintool.KindFetch }

func (t *MCPForwardTool) Description() string {
	switch t.verb {
	case "invoke":
		return fmt.Sprintf("Invoke a named tool on the %q MCP server.", t.server)
	case "search":
		return fmt.Sprintf("List tools on the %q MCP server whose name contains a substring.", t.server)
	default:
		return fmt.Sprintf("Describe a tool's full schema on the %q MCP server.", t.server)
	}
}

func (t *MCPForwardTool) Schema() map[string]interface{} {
	switch t.verb {
	case "invoke":
		return map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tool":      map[string]interface{}{"type": "string"},
				"arguments": map[string]interface{}{"type": "object"},
			},
			"required": []string{"tool"},
		}
	case "search":
		return map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
			},
		}
	default: // describe
		return map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tool": map[string]interface{}{"type": "string"},
			},
			"required": []string{"tool"},
		}
	}
}

func (t *MCPForwardTool) Execute(ctx context.Context, args map[string]interface{}) (*domaintool.Result, error) {
	adapter, ok := t.manager.Adapter(t.server)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("MCP server %q is not currently managed", t.server))
	}

	switch t.verb {
	case "invoke":
		return t.invoke(ctx, adapter, args)
	case "search":
		return t.search(adapter, args)
	default:
		return t.describe(adapter, args)
	}
}

func (t *MCPForwardTool) invoke(ctx context.Context, adapter *MCPAdapter, args map[string]interface{}) (*domaintool.Result, error) {
	toolName, _ := args["tool"].(string)
	if toolName == "" {
		return nil, apperrors.NewValidationError("tool is required")
	}
	toolArgs, _ := args["arguments"].(map[string]interface{})

	output, err := adapter.CallTool(ctx, toolName, toolArgs)
	if err != nil {
		t.logger.Warn("mcp invoke failed",
			zap.String("server", t.server),
			zap.String("tool", toolName),
			zap.Error(err),
		)
		return &domaintool.Result{Output: err.Error(), Success: false, Error: err.Error()}, nil
	}
	return &domaintool.Result{Output: output, Success: true}, nil
}

func (t *MCPForwardTool) search(adapter *MCPAdapter, args map[string]interface{}) (*domaintool.Result, error) {
	query, _ := args["query"].(string)
	query = strings.ToLower(query)

	var matches []string
	for _, def := range adapter.GetTools() {
		if query == "" || strings.Contains(strings.ToLower(def.Name), query) {
			matches = append(matches, def.Name)
		}
	}
	return &domaintool.Result{
		Output:   strings.Join(matches, "\n"),
		Success:  true,
		Metadata: map[string]interface{}{"tools": matches, "count": len(matches)},
	}, nil
}

func (t *MCPForwardTool) describe(adapter *MCPAdapter, args map[string]interface{}) (*domaintool.Result, error) {
	toolName, _ := args["tool"].(string)
	if toolName == "" {
		return nil, apperrors.NewValidationError("tool is required")
	}
	for _, def := range adapter.GetTools() {
		if def.Name == toolName {
			return &domaintool.Result{
				Output:  def.Description,
				Success: true,
				Metadata: map[string]interface{}{
					"name":         def.Name,
					"description":  def.Description,
					"input_schema": def.InputSchema,
				},
			}, nil
		}
	}
	return &domaintool.Result{Output: fmt.Sprintf("no tool named %q on server %q", toolName, t.server), Success: false}, nil
}

// RegisterMCPForwardTools registers the three forwarding tools for every
// currently-managed MCP server.
func RegisterMCPForwardTools(manager *MCPManager, registry domaintool.Registry, logger *zap.Logger) int {
	registered := 0
	for _, info := range manager.ListServers() {
		if !info.Enabled {
			continue
		}
		for _, verb := range []string{"invoke", "search", "describe"} {
			ft := NewMCPForwardTool(manager, verb, info.Name, logger)
			if err := registry.Register(ft); err != nil {
				logger.Warn("failed to register MCP forward tool", zap.String("tool", ft.Name()), zap.Error(err))
				continue
			}
			registered++
		}
	}
	return registered
}
