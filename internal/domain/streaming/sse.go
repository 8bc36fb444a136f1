// Package streaming provides transport-agnostic primitives for consuming
// chunked/event-based LLM provider responses: a generic Server-Sent Events
// reader and a standalone JSON-object-stream parser. Provider-specific wire
// formats (e.g. the OpenAI chat-completions chunk shape) are consumed on
// top of these, not folded into them.
package streaming

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// EventKind classifies a parsed SSE frame.
type EventKind int

const (
	// EventOpen marks stream establishment, emitted once before any data.
	EventOpen EventKind = iota
	// EventMessage carries one "event: .../data: ..." frame.
	EventMessage
)

// Event is a single parsed SSE frame.
type Event struct {
	Kind EventKind
	Name string // the "event:" field, empty if the server omitted it
	Data string // the "data:" field, newline-joined across continuation lines
}

// ErrKind classifies a terminal SSE stream error.
type ErrKind int

const (
	// ErrInvalidStatusCode indicates the HTTP response status was not 2xx.
	ErrInvalidStatusCode ErrKind = iota
	// ErrInvalidContentType indicates the response was not text/event-stream.
	ErrInvalidContentType
	// ErrIdleTimeout indicates the read idle-timeout elapsed with no data.
	ErrIdleTimeout
)

// StreamError is a terminal error from Stream, carrying enough
// classification for the caller to decide whether a partial result is
// usable.
type StreamError struct {
	Kind ErrKind
	Err  error
}

func (e *StreamError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	switch e.Kind {
	case ErrInvalidStatusCode:
		return "sse: invalid status code"
	case ErrInvalidContentType:
		return "sse: invalid content type"
	case ErrIdleTimeout:
		return "sse: read idle timeout"
	default:
		return "sse: stream error"
	}
}

func (e *StreamError) Unwrap() error { return e.Err }

// CheckResponseHeaders validates an HTTP response's status code and
// Content-Type before Stream is called, classifying failures the way a
// caller needs to distinguish a bad request from a wrong-format response.
func CheckResponseHeaders(statusCode int, contentType string) error {
	if statusCode < 200 || statusCode >= 300 {
		return &StreamError{Kind: ErrInvalidStatusCode, Err: fmt.Errorf("unexpected status code %d", statusCode)}
	}
	if !strings.HasPrefix(contentType, "text/event-stream") {
		return &StreamError{Kind: ErrInvalidContentType, Err: fmt.Errorf("unexpected content type %q", contentType)}
	}
	return nil
}

// timedReader wraps an io.Reader, failing a Read that makes no progress
// within timeout. Reused from the OpenAI SSE consumer's idle-timeout idiom.
type timedReader struct {
	r       io.Reader
	timeout time.Duration
}

var errIdleTimeout = fmt.Errorf("sse: read idle timeout")

func (t *timedReader) Read(p []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := t.r.Read(p)
		ch <- result{n, err}
	}()

	select {
	case res := <-ch:
		return res.n, res.err
	case <-time.After(t.timeout):
		return 0, errIdleTimeout
	}
}

// Stream parses a raw text/event-stream body, invoking onEvent once per
// Event (an initial EventOpen, then one EventMessage per frame). It returns
// when the reader is exhausted or errors; idleTimeout bounds how long a
// single Read may block before the stream is treated as stalled.
func Stream(reader io.Reader, idleTimeout time.Duration, onEvent func(Event)) error {
	onEvent(Event{Kind: EventOpen})

	tReader := &timedReader{r: reader, timeout: idleTimeout}
	scanner := bufio.NewScanner(tReader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName string
	var dataLines []string

	flush := func() {
		if len(dataLines) == 0 {
			return
		}
		onEvent(Event{Kind: EventMessage, Name: eventName, Data: strings.Join(dataLines, "\n")})
		eventName = ""
		dataLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			continue
		}
		// Ignore comment lines (":") and any other field we don't track.
	}
	flush()

	if err := scanner.Err(); err != nil {
		if err == errIdleTimeout {
			return &StreamError{Kind: ErrIdleTimeout, Err: err}
		}
		return &StreamError{Err: err}
	}
	return nil
}
