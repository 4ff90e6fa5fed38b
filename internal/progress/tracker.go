package progress

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"storyreel/internal/logging"
)

// Tracker is the process-wide registry of pipeline tasks. It is constructed
// once per process and handed to every component that reports progress.
// It assumes a single writer per story; observers may read concurrently.
type Tracker struct {
	mu        sync.Mutex
	tasks     map[string]*Task
	roots     []*Task
	observers map[int]observer
	nextObsID int
	logger    *slog.Logger
	gate      *Gate
}

type observer struct {
	prefix string
	fn     func(Event)
}

// NewTracker constructs an empty tracker sharing the supplied pause gate.
func NewTracker(logger *slog.Logger, gate *Gate) *Tracker {
	if gate == nil {
		gate = NewGate()
	}
	return &Tracker{
		tasks:     make(map[string]*Task),
		observers: make(map[int]observer),
		logger:    logging.NewComponentLogger(logger, "progress"),
		gate:      gate,
	}
}

// Gate exposes the tracker's cooperative pause gate.
func (tr *Tracker) Gate() *Gate {
	return tr.gate
}

// Subscribe registers an observer for events whose task id starts with prefix.
// An empty prefix receives every event. The returned function unsubscribes.
func (tr *Tracker) Subscribe(prefix string, fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	tr.mu.Lock()
	id := tr.nextObsID
	tr.nextObsID++
	tr.observers[id] = observer{prefix: prefix, fn: fn}
	tr.mu.Unlock()
	return func() {
		tr.mu.Lock()
		delete(tr.observers, id)
		tr.mu.Unlock()
	}
}

// StartTask creates a task in running state. When parentID is non-empty the
// task is appended to that parent's children; an unknown parent makes the
// call a no-op.
//
// Calling StartTask with an existing id begins a new attempt: status,
// message, progress, and timestamps are reset even from a terminal state.
// The forward-only rule UpdateTask enforces holds within one attempt; only
// StartTask opens a new one. Regeneration reuses the root and stage ids this
// way.
func (tr *Tracker) StartTask(id, name, parentID string) {
	if strings.TrimSpace(id) == "" {
		return
	}
	tr.mu.Lock()

	var parent *Task
	if parentID != "" {
		var ok bool
		parent, ok = tr.tasks[parentID]
		if !ok {
			tr.mu.Unlock()
			tr.logger.Debug("ignoring task with unknown parent",
				logging.String(logging.FieldTaskID, id),
				logging.String("parent_id", parentID),
			)
			return
		}
	}

	task, exists := tr.tasks[id]
	if !exists {
		task = &Task{ID: id}
		tr.tasks[id] = task
		if parent != nil {
			parent.Children = append(parent.Children, task)
		} else {
			tr.roots = append(tr.roots, task)
		}
	}
	task.Name = name
	task.Status = StatusRunning
	task.Message = ""
	task.Progress = nil
	task.StartedAt = time.Now().UTC()
	task.EndedAt = nil
	task.ParentID = parentID

	event := Event{Kind: EventStarted, Task: *task.clone()}
	observers := tr.matchingObservers(id)
	tr.mu.Unlock()

	tr.notify(observers, event)
}

// UpdateTask mutates status, message, and progress of an existing task and
// emits an update event. Unknown ids and backward status transitions are
// ignored. A nil progress leaves the recorded percentage untouched.
func (tr *Tracker) UpdateTask(id string, status Status, message string, progressPct *float64) {
	tr.mu.Lock()
	task, ok := tr.tasks[id]
	if !ok {
		tr.mu.Unlock()
		return
	}
	if status.rank() < task.Status.rank() || (task.Status.terminal() && status != task.Status) {
		tr.mu.Unlock()
		tr.logger.Debug("ignoring backward status transition",
			logging.String(logging.FieldTaskID, id),
			logging.String("from", string(task.Status)),
			logging.String("to", string(status)),
		)
		return
	}
	task.Status = status
	if message != "" {
		task.Message = message
	}
	if progressPct != nil {
		pct := clampPercent(*progressPct)
		task.Progress = &pct
	}
	if status.terminal() && task.EndedAt == nil {
		now := time.Now().UTC()
		task.EndedAt = &now
	}

	kind := EventUpdated
	switch status {
	case StatusSuccess:
		kind = EventCompleted
	case StatusFailed:
		kind = EventFailed
	}
	event := Event{Kind: kind, Task: *task.clone()}
	observers := tr.matchingObservers(id)
	tr.mu.Unlock()

	tr.notify(observers, event)
}

// CompleteTask marks the task successful with a final message.
func (tr *Tracker) CompleteTask(id, message string) {
	full := 100.0
	tr.UpdateTask(id, StatusSuccess, message, &full)
}

// FailTask marks the task failed with a final message.
func (tr *Tracker) FailTask(id, message string) {
	tr.UpdateTask(id, StatusFailed, message, nil)
}

// Tree returns snapshots of all root tasks (tasks with no parent), each
// carrying its full subtree, sorted by start time.
func (tr *Tracker) Tree() []*Task {
	tr.mu.Lock()
	out := make([]*Task, 0, len(tr.roots))
	for _, root := range tr.roots {
		out = append(out, root.clone())
	}
	tr.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Get returns a snapshot of a single task, or nil when unknown.
func (tr *Tracker) Get(id string) *Task {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if task, ok := tr.tasks[id]; ok {
		return task.clone()
	}
	return nil
}

// Clear removes every task. Tasks are never deleted individually; the owning
// process clears them in bulk between runs.
func (tr *Tracker) Clear() {
	tr.mu.Lock()
	tr.tasks = make(map[string]*Task)
	tr.roots = nil
	tr.mu.Unlock()
}

func (tr *Tracker) matchingObservers(taskID string) []func(Event) {
	fns := make([]func(Event), 0, len(tr.observers))
	for _, obs := range tr.observers {
		if obs.prefix == "" || strings.HasPrefix(taskID, obs.prefix) {
			fns = append(fns, obs.fn)
		}
	}
	return fns
}

func (tr *Tracker) notify(fns []func(Event), event Event) {
	for _, fn := range fns {
		fn(event)
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
