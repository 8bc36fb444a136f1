package tool

import (
	"context"
	"testing"

	apperrors "github.com/ngoclaw/ngoclaw/gateway/pkg/errors"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes the count argument" }
func (echoTool) Kind() Kind          { return KindThink }
func (echoTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"count": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"count"},
	}
}
func (echoTool) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	return &Result{Output: "ok", Success: true, Metadata: args}, nil
}

type stubRouter struct {
	calls []string
}

func (r *stubRouter) Route(ctx context.Context, callerAgentID, name string, args map[string]interface{}) (map[string]interface{}, error) {
	r.calls = append(r.calls, name)
	return map[string]interface{}{"output": "routed:" + name}, nil
}

func TestDispatcherRoutesAgentPrefixToRouter(t *testing.T) {
	reg := NewInMemoryRegistry()
	router := &stubRouter{}
	d := NewDispatcher(reg, router, nil)

	res, err := d.Dispatch(context.Background(), DispatchRequest{Name: "agent__spawn", Arguments: nil})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if res.Output != "routed:agent__spawn" {
		t.Fatalf("output = %q", res.Output)
	}
	if len(router.calls) != 1 {
		t.Fatalf("router not invoked exactly once: %v", router.calls)
	}
}

func TestDispatcherUnknownToolIsValidationError(t *testing.T) {
	reg := NewInMemoryRegistry()
	d := NewDispatcher(reg, nil, nil)

	_, err := d.Dispatch(context.Background(), DispatchRequest{Name: "nope"})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("err = %v, want CodeValidation", err)
	}
}

func TestDispatcherCoercesStringNumberArgs(t *testing.T) {
	reg := NewInMemoryRegistry()
	reg.Register(echoTool{})
	d := NewDispatcher(reg, nil, nil)

	res, err := d.Dispatch(context.Background(), DispatchRequest{
		Name:      "echo",
		Arguments: map[string]interface{}{"count": "42"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if res.Metadata["count"] != int64(42) {
		t.Fatalf("count = %#v, want int64(42)", res.Metadata["count"])
	}
}

func TestDispatcherRejectsUncoercibleNumber(t *testing.T) {
	reg := NewInMemoryRegistry()
	reg.Register(echoTool{})
	d := NewDispatcher(reg, nil, nil)

	_, err := d.Dispatch(context.Background(), DispatchRequest{
		Name:      "echo",
		Arguments: map[string]interface{}{"count": "not-a-number"},
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("err = %v, want CodeValidation", err)
	}
}

func TestDispatcherRejectsMissingRequiredArg(t *testing.T) {
	reg := NewInMemoryRegistry()
	reg.Register(echoTool{})
	d := NewDispatcher(reg, nil, nil)

	_, err := d.Dispatch(context.Background(), DispatchRequest{
		Name:      "echo",
		Arguments: map[string]interface{}{},
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("err = %v, want CodeValidation", err)
	}
}

func TestDispatcherEnforcesLoopTracker(t *testing.T) {
	reg := NewInMemoryRegistry()
	reg.Register(echoTool{})
	tracker := NewToolCallTracker(2, 3)
	d := NewDispatcher(reg, nil, tracker)

	args := map[string]interface{}{"count": float64(1)}
	for i := 0; i < 3; i++ {
		if _, err := d.Dispatch(context.Background(), DispatchRequest{Name: "echo", Arguments: args}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	_, err := d.Dispatch(context.Background(), DispatchRequest{Name: "echo", Arguments: args})
	if !apperrors.IsCode(err, apperrors.CodeCallLoopDetected) {
		t.Fatalf("err = %v, want CodeCallLoopDetected", err)
	}
}
