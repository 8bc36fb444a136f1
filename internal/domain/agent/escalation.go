package agent

import (
	"sync"

	"github.com/google/uuid"
)

// EscalationRequest is a pending question from a subordinate agent to the
// root user. The reply, if any, is delivered on ReplyCh exactly once.
// Closing ReplyCh without a send (e.g. because the taker dropped it)
// signals cancellation to the waiter.
type EscalationRequest struct {
	ID             string
	FromAgentID    string
	FromAgentName  string
	Question       string
	Options        []string // nil means "no options offered"
	ReplyCh        chan string
}

// EscalationSummary is the read-only view returned by PendingSummary.
type EscalationSummary struct {
	EscalationID  string   `json:"escalation_id"`
	FromAgentID   string   `json:"from_agent_id"`
	FromAgentName string   `json:"from_agent_name"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
}

// EscalationQueue maps escalation id to pending request. Safe for concurrent use.
type EscalationQueue struct {
	mu      sync.Mutex
	pending map[string]*EscalationRequest
}

// NewEscalationQueue creates an empty queue.
func NewEscalationQueue() *EscalationQueue {
	return &EscalationQueue{pending: make(map[string]*EscalationRequest)}
}

// NewEscalationID generates an id of the form "esc_" + 8 hex characters.
func NewEscalationID() string {
	return "esc_" + uuid.New().String()[:8]
}

// Submit stores the request and returns its id.
func (q *EscalationQueue) Submit(req *EscalationRequest) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[req.ID] = req
	return req.ID
}

// Take removes and returns the request with the given id, if pending.
func (q *EscalationQueue) Take(id string) (*EscalationRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	req, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	return req, ok
}

// PendingSummary lists every currently-pending escalation, omitting the
// internal reply channel.
func (q *EscalationQueue) PendingSummary() []EscalationSummary {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]EscalationSummary, 0, len(q.pending))
	for _, req := range q.pending {
		out = append(out, EscalationSummary{
			EscalationID:  req.ID,
			FromAgentID:   req.FromAgentID,
			FromAgentName: req.FromAgentName,
			Question:      req.Question,
			Options:       req.Options,
		})
	}
	return out
}

// HasPending reports whether any escalation is currently pending.
func (q *EscalationQueue) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) > 0
}

// PendingCount returns the number of pending escalations, for diagnostics
// (mirrors the teacher's habit of a narrow Debug view that avoids leaking
// question content into logs).
func (q *EscalationQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
