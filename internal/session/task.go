package session

import (
	"context"
	"sync"

	"filesort/internal/organizer"
)

// Task is a handle on one organize pass running in the background.
type Task struct {
	runID  string
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	result *organizer.Result
	err    error
}

func newTask(runID string, cancel context.CancelFunc) *Task {
	return &Task{runID: runID, done: make(chan struct{}), cancel: cancel}
}

// RunID identifies the pass.
func (t *Task) RunID() string {
	return t.runID
}

// Done is closed when the pass has finished and its outcome is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel asks the pass to stop. Files already moved stay moved.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the pass finishes and returns its outcome.
func (t *Task) Wait() (*organizer.Result, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Finished reports whether the pass has completed.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Task) finish(res *organizer.Result, err error) {
	t.mu.Lock()
	t.result = res
	t.err = err
	t.mu.Unlock()
	t.cancel()
	close(t.done)
}
