package tool

import (
	"context"
	"testing"
	"time"

	domainagent "github.com/ngoclaw/ngoclaw/gateway/internal/domain/agent"
	"go.uber.org/zap"
)

func TestUserToolDirectHeadlessConfirmDefaultsTrue(t *testing.T) {
	eq := domainagent.NewEscalationQueue()
	depthOf := func(string) int { return 0 }
	tool := NewUserTool(eq, nil, depthOf, zap.NewNop())

	res, err := tool.Execute(context.Background(), map[string]interface{}{
		"action":   "confirm",
		"question": "proceed?",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Success || res.Output != "true" {
		t.Fatalf("res = %+v", res)
	}
}

func TestUserToolEscalatesAtDepthAndReceivesReply(t *testing.T) {
	eq := domainagent.NewEscalationQueue()
	depthOf := func(string) int { return 1 }
	tool := NewUserTool(eq, nil, depthOf, zap.NewNop())

	done := make(chan *domainToolResult, 1)
	go func() {
		res, err := tool.Execute(context.Background(), map[string]interface{}{
			"action":          "ask",
			"question":        "which path?",
			callerAgentIDArg: "child_1",
		})
		done <- &domainToolResult{res, err}
	}()

	// Wait for the escalation to be submitted, then answer it as the root
	// would.
	var id string
	for i := 0; i < 100; i++ {
		summaries := eq.PendingSummary()
		if len(summaries) > 0 {
			id = summaries[0].EscalationID
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if id == "" {
		t.Fatal("escalation never submitted")
	}
	req, ok := eq.Take(id)
	if !ok {
		t.Fatal("escalation not found")
	}
	req.ReplyCh <- "left"

	result := <-done
	if result.err != nil {
		t.Fatalf("execute: %v", result.err)
	}
	if !result.res.Success || result.res.Output != "left" {
		t.Fatalf("res = %+v", result.res)
	}
}

func TestUserToolEscalationCancelledWhenReplyChannelClosed(t *testing.T) {
	eq := domainagent.NewEscalationQueue()
	depthOf := func(string) int { return 1 }
	tool := NewUserTool(eq, nil, depthOf, zap.NewNop())

	done := make(chan *domainToolResult, 1)
	go func() {
		res, err := tool.Execute(context.Background(), map[string]interface{}{
			"action":         "input",
			"question":       "name?",
			callerAgentIDArg: "child_1",
		})
		done <- &domainToolResult{res, err}
	}()

	var id string
	for i := 0; i < 100; i++ {
		summaries := eq.PendingSummary()
		if len(summaries) > 0 {
			id = summaries[0].EscalationID
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	req, _ := eq.Take(id)
	close(req.ReplyCh)

	result := <-done
	if result.err != nil {
		t.Fatalf("execute: %v", result.err)
	}
	if result.res.Success {
		t.Fatal("expected failure on cancelled escalation")
	}
	if result.res.Metadata["fallback"] != "Make your best judgment and proceed" {
		t.Fatalf("unexpected metadata: %+v", result.res.Metadata)
	}
}

type domainToolResult struct {
	res *Result
	err error
}
