package streaming

import (
	"strings"
	"testing"
	"time"
)

func TestStreamEmitsOpenThenMessages(t *testing.T) {
	body := "event: delta\ndata: hello\n\ndata: world\n\n"
	var events []Event
	err := Stream(strings.NewReader(body), time.Second, func(e Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(events), events)
	}
	if events[0].Kind != EventOpen {
		t.Fatalf("first event = %+v, want EventOpen", events[0])
	}
	if events[1].Name != "delta" || events[1].Data != "hello" {
		t.Fatalf("second event = %+v", events[1])
	}
	if events[2].Name != "" || events[2].Data != "world" {
		t.Fatalf("third event = %+v", events[2])
	}
}

func TestStreamJoinsMultilineData(t *testing.T) {
	body := "data: line1\ndata: line2\n\n"
	var events []Event
	err := Stream(strings.NewReader(body), time.Second, func(e Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Data != "line1\nline2" {
		t.Fatalf("data = %q", events[1].Data)
	}
}

func TestCheckResponseHeadersRejectsBadStatus(t *testing.T) {
	err := CheckResponseHeaders(500, "text/event-stream")
	se, ok := err.(*StreamError)
	if !ok || se.Kind != ErrInvalidStatusCode {
		t.Fatalf("err = %v, want ErrInvalidStatusCode", err)
	}
}

func TestCheckResponseHeadersRejectsBadContentType(t *testing.T) {
	err := CheckResponseHeaders(200, "application/json")
	se, ok := err.(*StreamError)
	if !ok || se.Kind != ErrInvalidContentType {
		t.Fatalf("err = %v, want ErrInvalidContentType", err)
	}
}

func TestCheckResponseHeadersAcceptsValid(t *testing.T) {
	if err := CheckResponseHeaders(200, "text/event-stream; charset=utf-8"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
