package tool

import (
	"strings"
	"testing"
)

func callF(x int) Call {
	return Call{Name: "f", Arguments: map[string]interface{}{"x": x}}
}

func TestToolCallTrackerConsecutiveRepeatsRejected(t *testing.T) {
	tr := NewToolCallTracker(2, 3)

	if _, ok := tr.Check(callF(1)); !ok {
		t.Fatal("1st call should be allowed")
	}
	if _, ok := tr.Check(callF(1)); !ok {
		t.Fatal("2nd identical call should be allowed")
	}
	if _, ok := tr.Check(callF(1)); !ok {
		t.Fatal("3rd identical call should be allowed (below chainLen gate)")
	}
	msg, ok := tr.Check(callF(1))
	if ok {
		t.Fatal("4th identical call should be rejected")
	}
	if msg == "" {
		t.Fatal("expected a diagnostic message")
	}
	if !strings.Contains(msg, "Call loop detected") {
		t.Fatalf("message missing marker: %q", msg)
	}
}

func TestToolCallTrackerDistinctCallsAllowed(t *testing.T) {
	tr := NewToolCallTracker(2, 3)
	for i := 0; i < 10; i++ {
		if _, ok := tr.Check(callF(i)); !ok {
			t.Fatalf("distinct call %d unexpectedly rejected", i)
		}
	}
}

func TestToolCallTrackerRepeatingChainRejected(t *testing.T) {
	tr := NewToolCallTracker(2, 3)

	chain := []Call{callF(1), callF(2), callF(3)}
	for _, c := range chain {
		if _, ok := tr.Check(c); !ok {
			t.Fatalf("first chain pass rejected unexpectedly: %+v", c)
		}
	}
	for _, c := range chain {
		if _, ok := tr.Check(c); !ok {
			t.Fatalf("second chain pass rejected unexpectedly: %+v", c)
		}
	}
	// The chain has now repeated once (chainLen window matches the prior
	// window); continuing it with the chain's first element again should
	// be rejected as a loop.
	if _, ok := tr.Check(chain[0]); ok {
		t.Fatal("third repetition of the chain should be rejected")
	}
}

func TestToolCallTrackerResetClearsHistory(t *testing.T) {
	tr := NewToolCallTracker(2, 3)
	tr.Check(callF(1))
	tr.Check(callF(1))
	tr.Reset()
	if _, ok := tr.Check(callF(1)); !ok {
		t.Fatal("after Reset, history should be cleared")
	}
}
