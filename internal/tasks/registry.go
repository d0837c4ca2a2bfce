package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task statuses, in lifecycle order. failed and cancelled are terminal
// alongside completed.
const (
	StatusPending     = "pending"
	StatusDownloading = "downloading"
	StatusProcessing  = "processing"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusCancelled   = "cancelled"
)

// Task is one tracked download. Its Set* methods satisfy the reporting
// handle downloaders write through, so a running job updates the registry
// entry directly.
type Task struct {
	mu         sync.Mutex
	id         string
	url        string
	mode       string
	start      float64
	end        float64
	status     string
	message    string
	progress   float64
	outputPath string
	err        string
	createdAt  time.Time
	cancel     context.CancelFunc
}

// Snapshot is the JSON view of a task at one point in time.
type Snapshot struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Mode       string    `json:"mode"`
	Start      float64   `json:"start_seconds"`
	End        float64   `json:"end_seconds"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	Progress   float64   `json:"progress"`
	OutputPath string    `json:"output_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (t *Task) ID() string { return t.id }

func (t *Task) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if isTerminal(t.status) {
		return
	}
	t.status = status
}

func (t *Task) SetMessage(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = message
}

func (t *Task) SetProgress(fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	t.progress = fraction
}

// Finish records the job's outcome. Cancellation wins over any error the
// unwinding download path reports afterwards.
func (t *Task) Finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusCancelled {
		return
	}
	if err != nil {
		t.status = StatusFailed
		t.err = err.Error()
		return
	}
	t.status = StatusCompleted
	t.progress = 1
}

func (t *Task) SetOutputPath(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outputPath = path
}

func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ID:         t.id,
		URL:        t.url,
		Mode:       t.mode,
		Start:      t.start,
		End:        t.end,
		Status:     t.status,
		Message:    t.message,
		Progress:   t.progress,
		OutputPath: t.outputPath,
		Error:      t.err,
		CreatedAt:  t.createdAt,
	}
}

func (t *Task) Terminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return isTerminal(t.status)
}

func isTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCancelled
}

// Registry tracks tasks for the HTTP API. Entries are kept after
// completion so clients can poll final state.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Create registers a pending task and returns it with a context the runner
// should pass down. Cancelling through the registry cancels that context.
func (r *Registry) Create(ctx context.Context, url, mode string, start, end float64) (*Task, context.Context) {
	jobCtx, cancel := context.WithCancel(ctx)
	task := &Task{
		id:        uuid.NewString()[:8],
		url:       url,
		mode:      mode,
		start:     start,
		end:       end,
		status:    StatusPending,
		createdAt: time.Now(),
		cancel:    cancel,
	}
	r.mu.Lock()
	r.tasks[task.id] = task
	r.mu.Unlock()
	return task, jobCtx
}

func (r *Registry) Get(id string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	return task, ok
}

// List returns snapshots newest first.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	snaps := make([]Snapshot, 0, len(r.tasks))
	for _, task := range r.tasks {
		snaps = append(snaps, task.Snapshot())
	}
	r.mu.Unlock()
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps
}

// Cancel marks the task cancelled and fires its context. Cancelling a
// finished task is an error.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	task, ok := r.tasks[id]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	task.mu.Lock()
	if isTerminal(task.status) {
		task.mu.Unlock()
		return fmt.Errorf("task %s already %s", id, task.status)
	}
	task.status = StatusCancelled
	task.mu.Unlock()
	task.cancel()
	return nil
}
