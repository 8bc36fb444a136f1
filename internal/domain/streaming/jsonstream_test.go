package streaming

import "testing"

func TestJSONStreamParserSingleObjectWholeChunk(t *testing.T) {
	p := NewJSONStreamParser()
	var got []string
	p.Process(`{"k":"v"}`, func(v string) { got = append(got, v) })
	if len(got) != 1 || got[0] != `{"k":"v"}` {
		t.Fatalf("got %v", got)
	}
}

func TestJSONStreamParserNDJSONAcrossChunks(t *testing.T) {
	p := NewJSONStreamParser()
	var got []string
	handle := func(v string) { got = append(got, v) }

	full := "{\"k\":\"v\"}\n{\"k\":\"v2\"}\n{\"k\":\"v3\"}"
	for _, chunk := range splitChunks(full, 3) {
		p.Process(chunk, handle)
	}

	want := []string{`{"k":"v"}`, `{"k":"v2"}`, `{"k":"v3"}`}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestJSONStreamParserArrayOfObjects(t *testing.T) {
	p := NewJSONStreamParser()
	var got []string
	handle := func(v string) { got = append(got, v) }

	full := `[{"k":"v"},{"k":"v2"},{"k":"v3"}]`
	for _, chunk := range splitChunks(full, 4) {
		p.Process(chunk, handle)
	}

	want := []string{`{"k":"v"}`, `{"k":"v2"}`, `{"k":"v3"}`}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestJSONStreamParserQuotedBracesIgnored(t *testing.T) {
	p := NewJSONStreamParser()
	var got []string
	p.Process(`{"k":"{ not a brace } and \"escaped\" quotes"}`, func(v string) { got = append(got, v) })
	if len(got) != 1 {
		t.Fatalf("got %v, want exactly one value", got)
	}
}

// splitChunks breaks s into pieces of at most n runes, used to simulate
// arbitrary network chunk boundaries the way the original test harness did
// with randomly-sized splits.
func splitChunks(s string, n int) []string {
	runes := []rune(s)
	var out []string
	for i := 0; i < len(runes); i += n {
		end := i + n
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}
