package agent

import (
	"sync"
	"sync/atomic"
)

// AgentExitStatus is the terminal state of a completed AgentHandle.
type AgentExitStatus string

const (
	ExitCompleted AgentExitStatus = "completed"
	ExitCancelled AgentExitStatus = "cancelled"
	ExitFailed    AgentExitStatus = "failed"
)

// AgentResult is the outcome of a finished agent run.
type AgentResult struct {
	ID         string
	AgentName  string
	Output     string
	ExitStatus AgentExitStatus
	FailReason string // populated when ExitStatus == ExitFailed
}

// AbortSignal is a cooperative cancellation token shared between an agent's
// goroutines.
type AbortSignal struct {
	flag atomic.Bool
}

// NewAbortSignal creates a signal in the not-aborted state.
func NewAbortSignal() *AbortSignal {
	return &AbortSignal{}
}

// Set flips the signal. Idempotent.
func (s *AbortSignal) Set() {
	s.flag.Store(true)
}

// Aborted reports whether Set has been called.
func (s *AbortSignal) Aborted() bool {
	return s.flag.Load()
}

// AgentHandle is the Supervisor's record of a registered agent. The result
// of a finished run is retrieved without ever blocking: the owning
// goroutine writes Result() via SetResult and closes done exactly once,
// before which IsFinished reports false. This is the resolution of the
// "never block the tool-handler goroutine on a child join" requirement —
// see DESIGN.md's entry on the sync `block_on` anti-pattern this avoids.
type AgentHandle struct {
	ID          string
	AgentName   string
	Depth       int
	Inbox       *Inbox
	AbortSignal *AbortSignal

	mu     sync.Mutex
	done   chan struct{}
	result AgentResult
}

// NewAgentHandle creates a handle for a freshly spawned agent.
func NewAgentHandle(id, agentName string, depth int) *AgentHandle {
	return &AgentHandle{
		ID:          id,
		AgentName:   agentName,
		Depth:       depth,
		Inbox:       NewInbox(),
		AbortSignal: NewAbortSignal(),
		done:        make(chan struct{}),
	}
}

// SetResult records the finished result and marks the handle finished.
// Must be called at most once, by the goroutine driving the agent's run.
func (h *AgentHandle) SetResult(result AgentResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return // already finished; ignore a duplicate call
	default:
	}
	h.result = result
	close(h.done)
}

// finished reports, without blocking, whether SetResult has been called.
func (h *AgentHandle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Result returns the recorded result. Only meaningful once finished() is true.
func (h *AgentHandle) Result() AgentResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Done exposes the completion channel for callers that do want to await
// completion explicitly (e.g. a background "wait for all children" helper
// running outside of any lock) — awaiting this channel is always safe
// because it is only ever closed by the agent's own goroutine, never by a
// caller holding the Supervisor lock.
func (h *AgentHandle) Done() <-chan struct{} {
	return h.done
}
