package agent

import (
	"testing"
	"time"
)

func TestInboxDrainEmptyIsIdempotent(t *testing.T) {
	ib := NewInbox()

	first := ib.Drain()
	if len(first) != 0 {
		t.Fatalf("expected empty drain, got %d messages", len(first))
	}

	second := ib.Drain()
	if len(second) != 0 {
		t.Fatalf("expected empty drain on repeat, got %d messages", len(second))
	}
}

func TestInboxDrainOrdersControlBeforeData(t *testing.T) {
	ib := NewInbox()
	now := time.Now()

	ib.Deliver(Envelope{From: "a", To: "b", Payload: TextPayload("first"), Timestamp: now})
	ib.Deliver(Envelope{From: "a", To: "b", Payload: TextPayload("second"), Timestamp: now})
	ib.Deliver(Envelope{From: "a", To: "b", Payload: TaskCompletedPayload("1", "done"), Timestamp: now})
	ib.Deliver(Envelope{From: "a", To: "b", Payload: ShutdownRequestPayload("bye"), Timestamp: now})
	ib.Deliver(Envelope{From: "a", To: "b", Payload: TextPayload("third"), Timestamp: now})

	drained := ib.Drain()
	if len(drained) != 5 {
		t.Fatalf("expected 5 envelopes, got %d", len(drained))
	}

	wantKinds := []PayloadKind{
		PayloadShutdownRequest,
		PayloadTaskCompleted,
		PayloadText,
		PayloadText,
		PayloadText,
	}
	for i, want := range wantKinds {
		if drained[i].Payload.Kind != want {
			t.Fatalf("position %d: want kind %q, got %q", i, want, drained[i].Payload.Kind)
		}
	}

	// Insertion order preserved within the data-plane group.
	if drained[2].Payload.Content != "first" || drained[3].Payload.Content != "second" || drained[4].Payload.Content != "third" {
		t.Fatalf("data-plane envelopes not stably ordered: %+v", drained)
	}
}

func TestInboxDrainTakesEverythingAtomically(t *testing.T) {
	ib := NewInbox()
	for i := 0; i < 3; i++ {
		ib.Deliver(Envelope{From: "a", To: "b", Payload: TextPayload("msg"), Timestamp: time.Now()})
	}
	if got := ib.PendingCount(); got != 3 {
		t.Fatalf("expected 3 pending, got %d", got)
	}

	drained := ib.Drain()
	if len(drained) != 3 {
		t.Fatalf("expected 3 drained, got %d", len(drained))
	}
	if got := ib.PendingCount(); got != 0 {
		t.Fatalf("expected 0 pending after drain, got %d", got)
	}
}

func TestInboxCloneIsIndependent(t *testing.T) {
	ib := NewInbox()
	ib.Deliver(Envelope{From: "a", To: "b", Payload: TextPayload("msg"), Timestamp: time.Now()})

	clone := ib.Clone()
	ib.Deliver(Envelope{From: "a", To: "b", Payload: TextPayload("second"), Timestamp: time.Now()})

	if clone.PendingCount() != 1 {
		t.Fatalf("expected clone to retain snapshot of 1 message, got %d", clone.PendingCount())
	}
	if ib.PendingCount() != 2 {
		t.Fatalf("expected original to have 2 messages, got %d", ib.PendingCount())
	}
}
