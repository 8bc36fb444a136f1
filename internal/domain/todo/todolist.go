// Package todo implements the per-agent goal-and-checklist tracker that the
// todo__ tool family mutates.
package todo

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TodoItem is a single checklist entry. Id is assigned by TodoList.Add and
// is never reused even if the item is later removed (removal is not an
// operation this list supports — only completion).
type TodoItem struct {
	ID   int    `json:"id"`
	Desc string `json:"desc"`
	Done bool   `json:"done"`
}

// icon returns the render_for_model glyph for this item's status.
func (t TodoItem) icon() string {
	if t.Done {
		return "✓"
	}
	return "○"
}

// UnmarshalJSON accepts the legacy field name "description" as an alias for
// "desc", matching the wire format recovered from the original
// implementation's serde(alias = "description").
func (t *TodoItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          int    `json:"id"`
		Desc        string `json:"desc"`
		Description string `json:"description"`
		Done        bool   `json:"done"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.ID = raw.ID
	t.Done = raw.Done
	if raw.Desc != "" {
		t.Desc = raw.Desc
	} else {
		t.Desc = raw.Description
	}
	return nil
}

// TodoList is a per-agent goal plus an ordered, append-only checklist.
// Safe for concurrent use.
type TodoList struct {
	mu    sync.RWMutex
	goal  string
	items []TodoItem
}

// todoListJSON is the wire shape for (de)serialization.
type todoListJSON struct {
	Goal  string     `json:"goal"`
	Todos []TodoItem `json:"todos"`
}

// New resets the list to a fresh goal with no items. Called by todo__init;
// any prior goal/items are discarded.
func New(goal string) *TodoList {
	return &TodoList{goal: goal, items: make([]TodoItem, 0)}
}

// Reset clears the list to a fresh goal with no items, in place.
func (l *TodoList) Reset(goal string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.goal = goal
	l.items = make([]TodoItem, 0)
}

// Goal returns the current goal text.
func (l *TodoList) Goal() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.goal
}

// Add appends a new pending item and returns its id. Ids are assigned as
// max(existing)+1, starting at 1, and are never reused.
func (l *TodoList) Add(desc string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	maxID := 0
	for _, item := range l.items {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	id := maxID + 1
	l.items = append(l.items, TodoItem{ID: id, Desc: desc})
	return id
}

// MarkDone flips the named item to done. Returns false if no item has that id.
func (l *TodoList) MarkDone(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Done = true
			return true
		}
	}
	return false
}

// HasIncomplete reports whether any item is not yet done.
func (l *TodoList) HasIncomplete() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		if !item.Done {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the list has no items.
func (l *TodoList) IsEmpty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items) == 0
}

// CompletedCount returns the number of done items.
func (l *TodoList) CompletedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, item := range l.items {
		if item.Done {
			n++
		}
	}
	return n
}

// IncompleteCount returns the number of not-done items.
func (l *TodoList) IncompleteCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, item := range l.items {
		if !item.Done {
			n++
		}
	}
	return n
}

// Items returns a copy of the current checklist.
func (l *TodoList) Items() []TodoItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]TodoItem, len(l.items))
	copy(out, l.items)
	return out
}

// RenderForModel produces the goal line, a progress summary, and one line
// per item in the exact format the agent's system context expects:
//
//	Goal: <goal>
//	Progress: k/n completed
//	  ✓ 1. <desc>
//	  ○ 2. <desc>
func (l *TodoList) RenderForModel() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var b strings.Builder
	if l.goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", l.goal)
	}

	completed := 0
	for _, item := range l.items {
		if item.Done {
			completed++
		}
	}
	fmt.Fprintf(&b, "Progress: %d/%d completed", completed, len(l.items))

	for _, item := range l.items {
		fmt.Fprintf(&b, "\n  %s %d. %s", item.icon(), item.ID, item.Desc)
	}

	return b.String()
}

// MarshalJSON serializes goal and todos.
func (l *TodoList) MarshalJSON() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return json.Marshal(todoListJSON{Goal: l.goal, Todos: l.items})
}

// UnmarshalJSON restores goal and todos, accepting the legacy "description"
// alias via TodoItem's own UnmarshalJSON.
func (l *TodoList) UnmarshalJSON(data []byte) error {
	var raw todoListJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.goal = raw.Goal
	if raw.Todos == nil {
		raw.Todos = make([]TodoItem, 0)
	}
	l.items = raw.Todos
	return nil
}
