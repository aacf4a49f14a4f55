// Package scheduler provides the small timer primitive a Source uses to
// reschedule its next poll: a Task that can be scheduled for a future
// delay and killed, mirroring FNET_Task/FNET_Scheduler without requiring
// a dedicated goroutine per Source.
package scheduler

import (
	"time"

	"github.com/gostdlib/base/concurrency/sync"
)

// Task is a cancelable, reschedulable one-shot timer. A Task's fn runs on
// its own goroutine (via time.AfterFunc) each time it fires; callers
// wanting serialized execution across multiple Tasks must serialize inside
// fn themselves.
type Task struct {
	fn func()

	mu      sync.Mutex
	timer   *time.Timer
	killed  bool
}

// New creates a Task that calls fn when scheduled time elapses. The Task
// does not run until Schedule is called.
func New(fn func()) *Task {
	return &Task{fn: fn}
}

// Schedule arms the task to fire after d, replacing any pending schedule.
// A no-op if the task has been killed.
func (t *Task) Schedule(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.killed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, t.fn)
}

// Kill cancels any pending schedule and prevents future Schedule calls
// from arming a new one. Kill does not wait for an already-firing fn to
// finish; callers needing that guarantee must synchronize separately
// (Source does, via ConnectionPool.SyncTransport).
func (t *Task) Kill() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.killed = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
