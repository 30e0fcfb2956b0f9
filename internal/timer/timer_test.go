package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleAfterFires(t *testing.T) {
	r := NewRegistry()
	fired := make(chan struct{})
	r.ScheduleAfter(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	// Fired timers clean themselves up.
	time.Sleep(20 * time.Millisecond)
	if got := r.Active(); got != 0 {
		t.Errorf("expected 0 active timers after fire, got %d", got)
	}
}

func TestScheduleEveryRepeats(t *testing.T) {
	r := NewRegistry()
	var count int64
	id := r.ScheduleEvery(10*time.Millisecond, func() { atomic.AddInt64(&count, 1) })

	time.Sleep(55 * time.Millisecond)
	r.Cancel(id)
	if got := atomic.LoadInt64(&count); got < 2 {
		t.Errorf("expected at least 2 ticks, got %d", got)
	}
}

func TestCancelStopsFurtherTicks(t *testing.T) {
	r := NewRegistry()
	var count int64
	id := r.ScheduleEvery(10*time.Millisecond, func() { atomic.AddInt64(&count, 1) })

	time.Sleep(25 * time.Millisecond)
	r.Cancel(id)
	after := atomic.LoadInt64(&count)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt64(&count); got != after {
		t.Errorf("timer fired after Cancel: %d -> %d", after, got)
	}
	if got := r.Active(); got != 0 {
		t.Errorf("expected 0 active timers, got %d", got)
	}
}

func TestStopCancelsAll(t *testing.T) {
	r := NewRegistry()
	r.ScheduleEvery(time.Hour, func() {})
	r.ScheduleAfter(time.Hour, func() {})
	if got := r.Active(); got != 2 {
		t.Fatalf("expected 2 active timers, got %d", got)
	}
	r.Stop()
	if got := r.Active(); got != 0 {
		t.Errorf("expected 0 active timers after Stop, got %d", got)
	}
}

func TestCancelUnknownIDIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Cancel("timer_999")
}
