package todo

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewAndAdd(t *testing.T) {
	l := New("ship the feature")
	if l.Goal() != "ship the feature" {
		t.Fatalf("goal = %q", l.Goal())
	}
	id1 := l.Add("write code")
	id2 := l.Add("write tests")
	if id1 != 1 || id2 != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", id1, id2)
	}
	if l.IncompleteCount() != 2 || l.CompletedCount() != 0 {
		t.Fatalf("counts = %d/%d", l.CompletedCount(), l.IncompleteCount())
	}
}

func TestMarkDone(t *testing.T) {
	l := New("goal")
	id := l.Add("task")
	if !l.MarkDone(id) {
		t.Fatal("MarkDone returned false for known id")
	}
	if l.MarkDone(999) {
		t.Fatal("MarkDone returned true for unknown id")
	}
	if l.CompletedCount() != 1 {
		t.Fatalf("completed = %d, want 1", l.CompletedCount())
	}
}

func TestEmptyList(t *testing.T) {
	l := New("goal")
	if !l.IsEmpty() {
		t.Fatal("fresh list should be empty")
	}
	if l.HasIncomplete() {
		t.Fatal("empty list has no incomplete items")
	}
}

func TestAllDone(t *testing.T) {
	l := New("goal")
	a := l.Add("a")
	b := l.Add("b")
	l.MarkDone(a)
	l.MarkDone(b)
	if l.HasIncomplete() {
		t.Fatal("all items done, HasIncomplete should be false")
	}
}

func TestIdsNeverReusedAfterManyAdds(t *testing.T) {
	l := New("goal")
	var lastID int
	for i := 0; i < 5; i++ {
		lastID = l.Add("task")
	}
	if lastID != 5 {
		t.Fatalf("lastID = %d, want 5", lastID)
	}
}

func TestRenderForModel(t *testing.T) {
	l := New("ship it")
	id1 := l.Add("write code")
	l.Add("write tests")
	l.MarkDone(id1)

	rendered := l.RenderForModel()
	if !strings.Contains(rendered, "Goal: ship it") {
		t.Fatalf("missing goal line: %q", rendered)
	}
	if !strings.Contains(rendered, "Progress: 1/2 completed") {
		t.Fatalf("missing progress line: %q", rendered)
	}
	if !strings.Contains(rendered, "✓ 1. write code") {
		t.Fatalf("missing done item line: %q", rendered)
	}
	if !strings.Contains(rendered, "○ 2. write tests") {
		t.Fatalf("missing pending item line: %q", rendered)
	}
}

func TestSerializationRoundtrip(t *testing.T) {
	l := New("goal")
	id := l.Add("first task")
	l.MarkDone(id)
	l.Add("second task")

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := &TodoList{}
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Goal() != "goal" {
		t.Fatalf("goal = %q", restored.Goal())
	}
	items := restored.Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if !items[0].Done || items[1].Done {
		t.Fatalf("done flags not preserved: %+v", items)
	}
}

func TestLegacyDescriptionFieldAlias(t *testing.T) {
	raw := `{"goal":"g","todos":[{"id":1,"description":"legacy field","done":false}]}`
	restored := &TodoList{}
	if err := json.Unmarshal([]byte(raw), restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	items := restored.Items()
	if len(items) != 1 || items[0].Desc != "legacy field" {
		t.Fatalf("items = %+v", items)
	}
}
