package scheduler

import (
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	done := make(chan struct{})
	task := New(func() { close(done) })
	task.Schedule(10 * time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("task did not fire in time")
	}
}

func TestKillPreventsFire(t *testing.T) {
	fired := make(chan struct{}, 1)
	task := New(func() { fired <- struct{}{} })
	task.Schedule(50 * time.Millisecond)
	task.Kill()

	select {
	case <-fired:
		t.Fatalf("task fired after Kill")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduleAfterKillIsNoop(t *testing.T) {
	fired := make(chan struct{}, 1)
	task := New(func() { fired <- struct{}{} })
	task.Kill()
	task.Schedule(10 * time.Millisecond)

	select {
	case <-fired:
		t.Fatalf("task fired after Kill even though Schedule was called again")
	case <-time.After(50 * time.Millisecond):
	}
}
