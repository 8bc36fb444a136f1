package agent

import (
	"sort"
	"sync"
	"time"
)

// PayloadKind tags the variant carried by an Envelope.
type PayloadKind string

const (
	PayloadShutdownRequest  PayloadKind = "shutdown_request"
	PayloadShutdownApproved PayloadKind = "shutdown_approved"
	PayloadTaskCompleted    PayloadKind = "task_completed"
	PayloadText             PayloadKind = "text"
)

// priority orders payload kinds on drain: control-plane before data-plane,
// preserving insertion order within a kind (see Envelope.priority).
func (k PayloadKind) priority() int {
	switch k {
	case PayloadShutdownRequest, PayloadShutdownApproved:
		return 0
	case PayloadTaskCompleted:
		return 1
	default:
		return 2
	}
}

// Payload is the tagged variant carried by an Envelope. Exactly one of its
// fields is meaningful, selected by Kind.
type Payload struct {
	Kind PayloadKind

	// PayloadText
	Content string

	// PayloadTaskCompleted
	TaskID  string
	Summary string

	// PayloadShutdownRequest
	Reason string
}

// TextPayload builds a data-plane message payload.
func TextPayload(content string) Payload {
	return Payload{Kind: PayloadText, Content: content}
}

// TaskCompletedPayload builds a control-plane task-completion notice.
func TaskCompletedPayload(taskID, summary string) Payload {
	return Payload{Kind: PayloadTaskCompleted, TaskID: taskID, Summary: summary}
}

// ShutdownRequestPayload builds a control-plane shutdown request.
func ShutdownRequestPayload(reason string) Payload {
	return Payload{Kind: PayloadShutdownRequest, Reason: reason}
}

// ShutdownApprovedPayload builds a control-plane shutdown acknowledgement.
func ShutdownApprovedPayload() Payload {
	return Payload{Kind: PayloadShutdownApproved}
}

// Envelope is a single inter-agent message.
type Envelope struct {
	From      string
	To        string
	Payload   Payload
	Timestamp time.Time
}

// Inbox is a per-agent FIFO-with-priority message buffer. Any goroutine may
// deliver into it; only the owning agent is expected to drain it, but drain
// itself is safe to call from any goroutine.
type Inbox struct {
	mu       sync.Mutex
	messages []Envelope
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// Deliver appends an envelope to the inbox.
func (ib *Inbox) Deliver(env Envelope) {
	ib.mu.Lock()
	ib.messages = append(ib.messages, env)
	ib.mu.Unlock()
}

// Drain atomically takes every pending envelope and returns them sorted by
// payload priority (control-plane before data-plane), preserving insertion
// order within a priority class. Draining an empty inbox returns an empty,
// non-nil slice.
func (ib *Inbox) Drain() []Envelope {
	ib.mu.Lock()
	taken := ib.messages
	ib.messages = nil
	ib.mu.Unlock()

	if len(taken) == 0 {
		return []Envelope{}
	}

	sort.SliceStable(taken, func(i, j int) bool {
		return taken[i].Payload.Kind.priority() < taken[j].Payload.Kind.priority()
	})
	return taken
}

// PendingCount reports the number of envelopes currently buffered.
func (ib *Inbox) PendingCount() int {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	return len(ib.messages)
}

// Clone returns a deep copy of the inbox's current contents as a new Inbox.
func (ib *Inbox) Clone() *Inbox {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	copied := make([]Envelope, len(ib.messages))
	copy(copied, ib.messages)
	return &Inbox{messages: copied}
}
