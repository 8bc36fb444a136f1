package agent

import (
	"errors"
	"sort"
	"strconv"
	"sync"
)

// TaskStatus is the lifecycle state of a TaskNode.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskBlocked    TaskStatus = "blocked"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Sentinel errors surfaced by TaskQueue mutations.
var (
	ErrSelfDependency = errors.New("a task cannot depend on itself")
	ErrUnknownTask    = errors.New("task does not exist")
	ErrCycleDetected  = errors.New("adding this dependency would create a cycle")
)

// TaskNode is a single node in the dependency DAG. DispatchAgent/Prompt are
// the optional auto-dispatch payload: if DispatchAgent is set, Prompt must
// also be set (enforced by the tool dispatcher, not by TaskQueue itself).
type TaskNode struct {
	ID             string
	Subject        string
	Description    string
	Status         TaskStatus
	Owner          string
	BlockedBy      map[string]struct{}
	Blocks         map[string]struct{}
	DispatchAgent  string
	Prompt         string
	blocksOrder    []string // insertion order of Blocks, for deterministic complete() fan-out
}

// IsRunnable reports whether the node is Pending with no remaining blockers.
func (n *TaskNode) IsRunnable() bool {
	return n.Status == TaskPending && len(n.BlockedBy) == 0
}

// TaskQueue is a dependency graph of TaskNodes with DFS cycle detection and
// fan-in completion tracking. Safe for concurrent use.
type TaskQueue struct {
	mu     sync.RWMutex
	tasks  map[string]*TaskNode
	nextID int
}

// NewTaskQueue creates an empty task queue. Ids are assigned starting at 1.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		tasks:  make(map[string]*TaskNode),
		nextID: 1,
	}
}

// Create registers a new task and returns its id. Never fails.
func (q *TaskQueue) Create(subject, description, dispatchAgent, prompt string) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := strconv.Itoa(q.nextID)
	q.nextID++

	q.tasks[id] = &TaskNode{
		ID:            id,
		Subject:       subject,
		Description:   description,
		Status:        TaskPending,
		BlockedBy:     make(map[string]struct{}),
		Blocks:        make(map[string]struct{}),
		DispatchAgent: dispatchAgent,
		Prompt:        prompt,
	}
	return id
}

// AddDependency records that taskID is blocked by blockerID. Idempotent
// under repeated identical application.
func (q *TaskQueue) AddDependency(taskID, blockerID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if taskID == blockerID {
		return ErrSelfDependency
	}

	task, ok := q.tasks[taskID]
	if !ok {
		return ErrUnknownTask
	}
	blocker, ok := q.tasks[blockerID]
	if !ok {
		return ErrUnknownTask
	}

	if _, already := task.BlockedBy[blockerID]; already {
		return nil // idempotent
	}

	if q.wouldCreateCycle(taskID, blockerID) {
		return ErrCycleDetected
	}

	task.BlockedBy[blockerID] = struct{}{}
	task.Status = TaskBlocked

	if _, exists := blocker.Blocks[taskID]; !exists {
		blocker.Blocks[taskID] = struct{}{}
		blocker.blocksOrder = append(blocker.blocksOrder, taskID)
	}
	return nil
}

// wouldCreateCycle reports whether blockerID can already reach taskID by
// walking backward along existing blocked_by edges (depth-first search from
// the proposed blocker). Must be called with q.mu held.
func (q *TaskQueue) wouldCreateCycle(taskID, blockerID string) bool {
	stack := []string{blockerID}
	visited := make(map[string]struct{})

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == taskID {
			return true
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		node, ok := q.tasks[current]
		if !ok {
			continue
		}
		for dep := range node.BlockedBy {
			stack = append(stack, dep)
		}
	}
	return false
}

// Complete marks taskID Completed and returns the ids that become runnable
// as a result, in insertion order of the completed task's Blocks set.
// Completing an already-Completed task is a no-op returning an empty list.
func (q *TaskQueue) Complete(taskID string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok || task.Status == TaskCompleted {
		return []string{}
	}

	task.Status = TaskCompleted

	var newlyRunnable []string
	for _, depID := range task.blocksOrder {
		dep, ok := q.tasks[depID]
		if !ok {
			continue
		}
		delete(dep.BlockedBy, taskID)
		if len(dep.BlockedBy) == 0 && dep.Status == TaskBlocked {
			dep.Status = TaskPending
			newlyRunnable = append(newlyRunnable, depID)
		}
	}
	if newlyRunnable == nil {
		newlyRunnable = []string{}
	}
	return newlyRunnable
}

// Fail marks taskID Failed. Dependents are not automatically unblocked or
// otherwise notified — failure does not propagate (preserved design choice).
func (q *TaskQueue) Fail(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if task, ok := q.tasks[taskID]; ok {
		task.Status = TaskFailed
	}
}

// Claim assigns owner to taskID and flips it to InProgress, but only if the
// task is currently runnable and unowned.
func (q *TaskQueue) Claim(taskID, owner string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok || !task.IsRunnable() || task.Owner != "" {
		return false
	}
	task.Owner = owner
	task.Status = TaskInProgress
	return true
}

// Get returns a copy of the named node, or false if it does not exist.
func (q *TaskQueue) Get(taskID string) (TaskNode, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return TaskNode{}, false
	}
	return cloneTaskNode(task), true
}

// List returns every node, sorted by numeric id ascending.
func (q *TaskQueue) List() []TaskNode {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]TaskNode, 0, len(q.tasks))
	for _, task := range q.tasks {
		out = append(out, cloneTaskNode(task))
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out
}

// RunnableTasks returns every currently-runnable node.
func (q *TaskQueue) RunnableTasks() []TaskNode {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []TaskNode
	for _, task := range q.tasks {
		if task.IsRunnable() {
			out = append(out, cloneTaskNode(task))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out
}

func cloneTaskNode(n *TaskNode) TaskNode {
	blockedBy := make(map[string]struct{}, len(n.BlockedBy))
	for k := range n.BlockedBy {
		blockedBy[k] = struct{}{}
	}
	blocks := make(map[string]struct{}, len(n.Blocks))
	for k := range n.Blocks {
		blocks[k] = struct{}{}
	}
	return TaskNode{
		ID:            n.ID,
		Subject:       n.Subject,
		Description:   n.Description,
		Status:        n.Status,
		Owner:         n.Owner,
		BlockedBy:     blockedBy,
		Blocks:        blocks,
		DispatchAgent: n.DispatchAgent,
		Prompt:        n.Prompt,
	}
}
