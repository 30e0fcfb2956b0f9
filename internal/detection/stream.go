// Package detection: merged foreground event stream.
package detection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/timer"
)

const (
	// fallbackPollInterval is how often the stream re-polls the current
	// foreground app when push delivery has gone quiet.
	fallbackPollInterval = 15 * time.Second
	// pushQuietThreshold is how long without a push event before the
	// fallback poll engages.
	pushQuietThreshold = 60 * time.Second
	// dedupWindow suppresses a repeated identifier arriving on both the
	// push and poll paths within this window.
	dedupWindow = 2 * time.Second
)

// Stream merges push-delivered foreground changes with a fallback poll into
// one deduplicated event sequence. The fallback poll only engages after the
// push path has been quiet for pushQuietThreshold, covering missed events
// without double-delivering observed ones.
//
// The detector subscription and the poll timer exist only while at least
// one consumer is subscribed.
type Stream struct {
	detector Detector
	timers   *timer.Registry

	mu          sync.Mutex
	subscribers map[int]func(models.AppUsageEvent)
	nextSubID   int

	unsubscribe func()
	pollTimerID string

	lastPackage   string
	lastDelivered time.Time
	lastPushSeen  time.Time
}

// NewStream creates a stream over the given detector.
func NewStream(detector Detector, timers *timer.Registry) *Stream {
	return &Stream{
		detector:    detector,
		timers:      timers,
		subscribers: make(map[int]func(models.AppUsageEvent)),
	}
}

// Subscribe registers a consumer for merged foreground events and returns an
// unsubscribe function. The first subscriber attaches the stream to the
// detector; the last unsubscribe detaches it and cancels the fallback poll.
func (s *Stream) Subscribe(fn func(ev models.AppUsageEvent)) func() {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = fn
	if len(s.subscribers) == 1 {
		s.attachLocked()
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		if len(s.subscribers) == 0 {
			s.detachLocked()
		}
		s.mu.Unlock()
	}
}

// CurrentApp delegates to the underlying detector.
func (s *Stream) CurrentApp(ctx context.Context) (string, error) {
	return s.detector.CurrentApp(ctx)
}

// attachLocked wires the push subscription and fallback poll. Caller holds s.mu.
func (s *Stream) attachLocked() {
	slog.Debug("Stream attaching to detector")
	s.lastPushSeen = time.Now()
	s.unsubscribe = s.detector.Subscribe(func(pkg string) {
		s.deliver(pkg, true)
	})
	s.pollTimerID = s.timers.ScheduleEvery(fallbackPollInterval, s.fallbackPoll)
}

// detachLocked removes the push subscription and poll timer. Caller holds s.mu.
func (s *Stream) detachLocked() {
	slog.Debug("Stream detaching from detector")
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.pollTimerID != "" {
		s.timers.Cancel(s.pollTimerID)
		s.pollTimerID = ""
	}
}

// fallbackPoll re-checks the current foreground app when the push path has
// gone quiet, synthesizing an event for any change it finds.
func (s *Stream) fallbackPoll() {
	s.mu.Lock()
	quiet := time.Since(s.lastPushSeen)
	s.mu.Unlock()
	if quiet < pushQuietThreshold {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pkg, err := s.detector.CurrentApp(ctx)
	if err != nil {
		slog.Debug("Stream fallback poll failed", "error", err)
		return
	}
	if pkg == "" {
		return
	}
	s.deliver(pkg, false)
}

// deliver fans an observation out to subscribers unless it duplicates the
// last delivered event (same identifier within the dedup window).
func (s *Stream) deliver(pkg string, fromPush bool) {
	now := time.Now()

	s.mu.Lock()
	if fromPush {
		s.lastPushSeen = now
	}
	if pkg == s.lastPackage && now.Sub(s.lastDelivered) < dedupWindow {
		s.mu.Unlock()
		return
	}
	s.lastPackage = pkg
	s.lastDelivered = now
	subs := make([]func(models.AppUsageEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	ev := models.AppUsageEvent{Package: pkg, Timestamp: now}
	for _, fn := range subs {
		fn(ev)
	}
}
