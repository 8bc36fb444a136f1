package agent

import (
	"sort"
	"sync"

	apperrors "github.com/ngoclaw/ngoclaw/gateway/pkg/errors"
)

// Supervisor is the concurrent registry of AgentHandles plus the TaskQueue
// they share. It lives behind its own lock, deliberately separate from any
// shared-configuration lock, so that spawn traffic never blocks config
// reads (and vice versa) — see SPEC_FULL.md §4.E.
type Supervisor struct {
	mu            sync.RWMutex
	handles       map[string]*AgentHandle
	taskQueue     *TaskQueue
	maxConcurrent int
	maxDepth      int
}

// NewSupervisor creates a Supervisor with the given capacity and depth limits.
func NewSupervisor(maxConcurrent, maxDepth int) *Supervisor {
	return &Supervisor{
		handles:       make(map[string]*AgentHandle),
		taskQueue:     NewTaskQueue(),
		maxConcurrent: maxConcurrent,
		maxDepth:      maxDepth,
	}
}

// MaxConcurrent returns the capacity limit.
func (s *Supervisor) MaxConcurrent() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxConcurrent
}

// MaxDepth returns the depth limit.
func (s *Supervisor) MaxDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxDepth
}

// ActiveCount returns the number of currently-registered agents.
func (s *Supervisor) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handles)
}

// Register adds a handle to the registry, failing with AtCapacity or
// MaxDepthExceeded when the corresponding limit would be violated.
func (s *Supervisor) Register(handle *AgentHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.handles) >= s.maxConcurrent {
		return apperrors.NewAtCapacityError(s.maxConcurrent)
	}
	if handle.Depth > s.maxDepth {
		return apperrors.NewMaxDepthExceededError(handle.Depth, s.maxDepth)
	}
	s.handles[handle.ID] = handle
	return nil
}

// IsFinished polls the join status of a registered agent without blocking.
// Returns (status, true) if the agent is registered, or (false, false) if
// the id is unknown.
func (s *Supervisor) IsFinished(id string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[id]
	if !ok {
		return false, false
	}
	return h.finished(), true
}

// Take removes and returns the handle unconditionally.
func (s *Supervisor) Take(id string) (*AgentHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[id]
	if ok {
		delete(s.handles, id)
	}
	return h, ok
}

// TakeIfFinished removes and returns the handle only if it has already
// finished (polled non-blocking). This is the only path agent__collect
// should use: by construction, the result is already present once the
// handle is taken, so retrieving it is a plain field read with no
// suspension point — never a blocking join.
func (s *Supervisor) TakeIfFinished(id string) (*AgentHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[id]
	if !ok || !h.finished() {
		return nil, false
	}
	delete(s.handles, id)
	return h, true
}

// Depth returns the registered agent's spawn depth, if present.
func (s *Supervisor) Depth(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[id]
	if !ok {
		return 0, false
	}
	return h.Depth, true
}

// Inbox returns the registered agent's mailbox, if present.
func (s *Supervisor) Inbox(id string) (*Inbox, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[id]
	if !ok {
		return nil, false
	}
	return h.Inbox, true
}

// AgentListing is a single row of ListAgents output.
type AgentListing struct {
	ID     string
	Name   string
	Status string // "pending", "completed", "cancelled", or "failed"
}

// ListAgents returns every registered agent's id, name, and current status,
// sorted by id for determinism.
func (s *Supervisor) ListAgents() []AgentListing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AgentListing, 0, len(s.handles))
	for id, h := range s.handles {
		status := "pending"
		if h.finished() {
			status = string(h.Result().ExitStatus)
		}
		out = append(out, AgentListing{ID: id, Name: h.AgentName, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CancelAll signals every registered agent's abort token.
func (s *Supervisor) CancelAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.handles {
		h.AbortSignal.Set()
	}
}

// Cancel signals a single agent's abort token, if registered.
func (s *Supervisor) Cancel(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[id]
	if !ok {
		return false
	}
	h.AbortSignal.Set()
	return true
}

// TaskQueue exposes the owned TaskQueue.
func (s *Supervisor) TaskQueue() *TaskQueue {
	return s.taskQueue
}
