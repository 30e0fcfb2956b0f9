// Package timer provides a registry of cancellable timers for periodic
// sensor work.
//
// Cancellation is synchronous: once Cancel or Stop returns, the timer's
// function will not fire again. Sensors rely on this to guarantee that no
// callback runs after their Stop() resolves.
package timer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// entry tracks one scheduled timer.
type entry struct {
	stop     func()
	interval time.Duration
}

// Registry schedules one-shot and repeating functions keyed by generated IDs.
type Registry struct {
	timers map[string]*entry
	mu     sync.Mutex
	nextID int64
}

// NewRegistry creates an empty timer registry.
func NewRegistry() *Registry {
	return &Registry{timers: make(map[string]*entry)}
}

func (r *Registry) newID() string {
	r.nextID++
	return fmt.Sprintf("timer_%d", r.nextID)
}

// ScheduleAfter schedules fn to run once after delay.
func (r *Registry) ScheduleAfter(delay time.Duration, fn func()) string {
	r.mu.Lock()
	id := r.newID()
	t := time.AfterFunc(delay, func() {
		fn()
		r.mu.Lock()
		delete(r.timers, id)
		r.mu.Unlock()
	})
	r.timers[id] = &entry{stop: func() { t.Stop() }, interval: delay}
	r.mu.Unlock()

	slog.Debug("Timer ScheduleAfter", "id", id, "delay", delay)
	return id
}

// ScheduleEvery schedules fn to run repeatedly at the given interval until
// cancelled. The first run happens one interval from now.
func (r *Registry) ScheduleEvery(interval time.Duration, fn func()) string {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	r.mu.Lock()
	id := r.newID()
	r.timers[id] = &entry{
		stop: func() {
			ticker.Stop()
			once.Do(func() { close(done) })
		},
		interval: interval,
	}
	r.mu.Unlock()

	slog.Debug("Timer ScheduleEvery", "id", id, "interval", interval)
	return id
}

// Cancel stops a scheduled timer by ID. Cancelling an unknown ID is a no-op.
func (r *Registry) Cancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, exists := r.timers[id]; exists {
		e.stop()
		delete(r.timers, id)
		slog.Debug("Timer Cancel succeeded", "id", id)
		return
	}
	slog.Debug("Timer Cancel: timer not found", "id", id)
}

// Stop cancels all scheduled timers.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug("Timer stopping all timers", "count", len(r.timers))
	for id, e := range r.timers {
		e.stop()
		slog.Debug("Timer stopped", "id", id)
	}
	r.timers = make(map[string]*entry)
}

// Active returns the number of currently scheduled timers.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
