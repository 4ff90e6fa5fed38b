package progress

import "time"

// Status represents the lifecycle of a progress task.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// terminal reports whether a status ends the task lifecycle.
func (s Status) terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// rank orders statuses along the allowed forward transition path.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	case StatusSuccess, StatusFailed:
		return 2
	default:
		return -1
	}
}

// Task is a node in the progress tree. Task identifiers are namespaced per
// story and stage ("<storyID>_<stage>", "<storyID>_segment_<n>" for
// per-segment work) so observers can subscribe by prefix. Status moves
// forward only within one attempt; Tracker.StartTask on the same id opens a
// fresh attempt.
type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Progress  *float64   `json:"progress,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	ParentID  string     `json:"parentId,omitempty"`
	Children  []*Task    `json:"children,omitempty"`
}

// clone deep-copies a task and its subtree so observers never share mutable state.
func (t *Task) clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Progress != nil {
		v := *t.Progress
		cp.Progress = &v
	}
	if t.EndedAt != nil {
		v := *t.EndedAt
		cp.EndedAt = &v
	}
	if len(t.Children) > 0 {
		cp.Children = make([]*Task, 0, len(t.Children))
		for _, child := range t.Children {
			cp.Children = append(cp.Children, child.clone())
		}
	} else {
		cp.Children = nil
	}
	return &cp
}

// EventKind identifies the mutation an observer is being told about.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventUpdated   EventKind = "updated"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is delivered to observers on every task mutation. The embedded task
// is a snapshot; mutating it has no effect on the tracker.
type Event struct {
	Kind EventKind
	Task Task
}
