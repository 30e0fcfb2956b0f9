// Package detection: relay implementation fed by the local ingest API.
package detection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lifesync/lifesync-core/internal/models"
)

// backlogLimit bounds how many foreground events are retained while no
// subscriber is attached (e.g. while the engine is backgrounded).
const backlogLimit = 200

// Relay is the in-process Detector and SampleSource implementation. The
// platform shim pushes permission status, foreground-change events, and
// accelerometer sample batches into it; sensors consume them through the
// collaborator interfaces.
type Relay struct {
	mu sync.Mutex

	permission PermissionStatus
	currentApp string

	eventSubs  map[int]func(pkg string)
	sampleSubs map[int]func(s models.AccelSample)
	nextSubID  int

	accelAvailable bool

	backlog []models.AppUsageEvent
}

// NewRelay creates a relay with no permission granted and no feeds attached.
func NewRelay() *Relay {
	return &Relay{
		eventSubs:  make(map[int]func(pkg string)),
		sampleSubs: make(map[int]func(s models.AccelSample)),
	}
}

// CheckPermission implements Detector.
func (r *Relay) CheckPermission(ctx context.Context) (PermissionStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.permission, nil
}

// CurrentApp implements Detector. Returns "" when no app is foreground.
func (r *Relay) CurrentApp(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentApp, nil
}

// Subscribe implements Detector.
func (r *Relay) Subscribe(fn func(pkg string)) func() {
	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	r.eventSubs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.eventSubs, id)
		r.mu.Unlock()
	}
}

// Available implements SampleSource.
func (r *Relay) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accelAvailable
}

// SubscribeSamples implements SampleSource.
func (r *Relay) SubscribeSamples(fn func(s models.AccelSample)) func() {
	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	r.sampleSubs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.sampleSubs, id)
		r.mu.Unlock()
	}
}

// SetPermission records the platform-reported permission status.
func (r *Relay) SetPermission(status PermissionStatus) {
	r.mu.Lock()
	r.permission = status
	r.mu.Unlock()
	slog.Info("Relay permission updated", "granted", status.Granted, "simulation", status.Simulation)
}

// PublishEvent delivers a foreground-change observation. "" clears the
// foreground app (device idle). With no subscribers attached, non-empty
// events accumulate in a bounded backlog for later replay.
func (r *Relay) PublishEvent(pkg string) {
	r.mu.Lock()
	r.currentApp = pkg
	subs := make([]func(string), 0, len(r.eventSubs))
	for _, fn := range r.eventSubs {
		subs = append(subs, fn)
	}
	if len(subs) == 0 && pkg != "" {
		r.backlog = append(r.backlog, models.AppUsageEvent{Package: pkg, Timestamp: time.Now()})
		if len(r.backlog) > backlogLimit {
			r.backlog = r.backlog[len(r.backlog)-backlogLimit:]
		}
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(pkg)
	}
}

// PublishSamples delivers a batch of accelerometer readings in order and
// marks the accelerometer feed as available.
func (r *Relay) PublishSamples(samples []models.AccelSample) {
	r.mu.Lock()
	r.accelAvailable = true
	subs := make([]func(models.AccelSample), 0, len(r.sampleSubs))
	for _, fn := range r.sampleSubs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, s := range samples {
		for _, fn := range subs {
			fn(s)
		}
	}
}

// ReplayBacklog re-delivers events buffered while no subscriber was
// attached, in arrival order, then clears the buffer. Used on
// foreground-resume to catch up on history accumulated while backgrounded.
func (r *Relay) ReplayBacklog() int {
	r.mu.Lock()
	events := r.backlog
	r.backlog = nil
	subs := make([]func(string), 0, len(r.eventSubs))
	for _, fn := range r.eventSubs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	if len(events) == 0 || len(subs) == 0 {
		return 0
	}
	slog.Info("Relay replaying buffered detection events", "count", len(events))
	for _, ev := range events {
		for _, fn := range subs {
			fn(ev.Package)
		}
	}
	return len(events)
}
