package sensors

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/lifesync/lifesync-core/internal/categorizer"
	"github.com/lifesync/lifesync-core/internal/detection"
	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/timer"
)

const (
	// republishInterval is the periodic tick that re-checks the foreground
	// app and re-emits the snapshot so consumers never stall.
	republishInterval = 30 * time.Second
	// appHistoryLimit bounds the retained positive/negative interval log.
	appHistoryLimit = 100
	// sessionMinutesPerPoint converts interval minutes to points for
	// positive (earned) and negative (lost) apps.
	sessionMinutesPerPoint = 5
)

// AppSessions attributes foreground time to app categories. Each elapsed
// interval is accounted exactly once, to the app that was foreground at the
// start of the interval.
type AppSessions struct {
	desc     models.SensorDescriptor
	detector detection.Detector
	stream   *detection.Stream
	timers   *timer.Registry
	emitter  Emitter

	mu          sync.Mutex
	state       models.ProcessorState
	unsubscribe func()
	tickID      string

	currentApp      string
	currentCategory models.AppCategory
	intervalStart   time.Time
	positiveSeconds float64
	negativeSeconds float64
	neutralSeconds  float64
	totalPoints     int
	history         []models.AppHistoryEntry
}

// NewAppSessions creates an app session tracker over the merged event stream.
func NewAppSessions(desc models.SensorDescriptor, deps Deps, emitter Emitter) *AppSessions {
	return &AppSessions{
		desc:     desc,
		detector: deps.Detector,
		stream:   deps.Stream,
		timers:   deps.Timers,
		emitter:  emitter,
		state:    models.ProcessorInactive,
	}
}

// Start verifies detection permission, subscribes to foreground events, and
// begins the republish tick. Simulated detection is rejected.
func (a *AppSessions) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.state == models.ProcessorActive {
		a.mu.Unlock()
		return models.ErrAlreadyActive
	}
	a.state = models.ProcessorStarting
	a.mu.Unlock()

	if err := checkDetection(ctx, a.detector); err != nil {
		a.mu.Lock()
		a.state = models.ProcessorInactive
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	a.unsubscribe = a.stream.Subscribe(a.handleEvent)
	a.tickID = a.timers.ScheduleEvery(republishInterval, a.republish)
	a.state = models.ProcessorActive
	a.mu.Unlock()

	// Seed the open interval from whatever is already foreground.
	if pkg, err := a.stream.CurrentApp(ctx); err == nil && pkg != "" {
		a.handleEvent(models.AppUsageEvent{Package: pkg, Timestamp: time.Now()})
	}

	slog.Info("AppSessions started", "sensorID", a.desc.ID)
	return nil
}

// Stop closes the open interval, then releases the subscription and tick.
func (a *AppSessions) Stop() error {
	a.mu.Lock()
	if a.state != models.ProcessorActive {
		a.mu.Unlock()
		return nil
	}
	a.state = models.ProcessorStopping

	pointsDelta := a.closeIntervalLocked(time.Now())
	unsub := a.unsubscribe
	a.unsubscribe = nil
	tickID := a.tickID
	a.tickID = ""
	a.mu.Unlock()

	if tickID != "" {
		a.timers.Cancel(tickID)
	}
	if unsub != nil {
		unsub()
	}

	a.mu.Lock()
	a.state = models.ProcessorInactive
	snap := a.snapshotLocked()
	a.mu.Unlock()

	if pointsDelta != 0 {
		a.emitter.EmitPoints(a.desc.ID, pointsDelta)
	}
	a.emitter.EmitData(a.desc.ID, snap)
	slog.Info("AppSessions stopped", "sensorID", a.desc.ID, "totalMinutes", snap.TotalMinutes)
	return nil
}

// Snapshot implements Processor.
func (a *AppSessions) Snapshot() (models.StateRecord, error) {
	a.mu.Lock()
	snap := a.snapshotLocked()
	a.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return models.StateRecord{}, err
	}
	return models.StateRecord{SensorID: a.desc.ID, Type: a.desc.Type, UpdatedAt: time.Now(), Data: data}, nil
}

// Restore implements Processor. Accumulated buckets, points, and history
// carry over; the open interval does not, it would span the downtime.
func (a *AppSessions) Restore(rec models.StateRecord) error {
	if rec.Type != a.desc.Type {
		return models.ErrStateRecordTypeMismatch
	}
	var snap models.AppSessionsSnapshot
	if err := json.Unmarshal(rec.Data, &snap); err != nil {
		return err
	}

	a.mu.Lock()
	a.positiveSeconds = float64(snap.PositiveSeconds)
	a.negativeSeconds = float64(snap.NegativeSeconds)
	a.neutralSeconds = float64(snap.NeutralSeconds)
	a.totalPoints = snap.TotalPoints
	a.history = snap.History
	a.mu.Unlock()
	slog.Debug("AppSessions restored", "sensorID", a.desc.ID, "totalPoints", snap.TotalPoints)
	return nil
}

// Refresh re-runs the change check once and re-emits the snapshot.
func (a *AppSessions) Refresh(ctx context.Context) error {
	if pkg, err := a.stream.CurrentApp(ctx); err == nil && pkg != "" {
		a.handleEvent(models.AppUsageEvent{Package: pkg, Timestamp: time.Now()})
	}
	a.mu.Lock()
	snap := a.snapshotLocked()
	a.mu.Unlock()
	a.emitter.EmitData(a.desc.ID, snap)
	return nil
}

// State implements Processor.
func (a *AppSessions) State() models.ProcessorState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// handleEvent processes one foreground-change observation.
func (a *AppSessions) handleEvent(ev models.AppUsageEvent) {
	if ev.Package == "" || isSystemPackage(ev.Package) {
		return
	}
	name := appNameFromPackage(ev.Package)

	a.mu.Lock()
	if a.state != models.ProcessorActive && a.state != models.ProcessorStarting {
		a.mu.Unlock()
		return
	}
	if name == a.currentApp {
		a.mu.Unlock()
		return
	}

	when := ev.Timestamp
	if when.IsZero() {
		when = time.Now()
	}
	pointsDelta := a.closeIntervalLocked(when)
	category := categorizer.Categorize(name)
	a.currentApp = name
	a.currentCategory = category
	a.intervalStart = when
	snap := a.snapshotLocked()
	a.mu.Unlock()

	slog.Debug("AppSessions foreground changed", "sensorID", a.desc.ID, "app", name, "category", string(category))
	if pointsDelta != 0 {
		a.emitter.EmitPoints(a.desc.ID, pointsDelta)
	}
	a.emitter.EmitData(a.desc.ID, snap)
}

// closeIntervalLocked attributes the elapsed interval to the closing app's
// category and returns the points delta it earned or lost. Caller holds a.mu.
func (a *AppSessions) closeIntervalLocked(now time.Time) int {
	if a.currentApp == "" || a.intervalStart.IsZero() {
		return 0
	}
	seconds := now.Sub(a.intervalStart).Seconds()
	a.intervalStart = time.Time{}
	if seconds <= 0 {
		return 0
	}

	delta := 0
	points := int(seconds / 60 / sessionMinutesPerPoint)
	switch a.currentCategory {
	case models.AppCategoryPositive:
		a.positiveSeconds += seconds
		delta = points
	case models.AppCategoryNegative:
		a.negativeSeconds += seconds
		delta = -points
	default:
		a.neutralSeconds += seconds
	}
	a.totalPoints += delta

	if a.currentCategory != models.AppCategoryNeutral {
		a.history = append(a.history, models.AppHistoryEntry{
			App:       a.currentApp,
			Category:  a.currentCategory,
			Seconds:   int(seconds),
			Timestamp: now,
		})
		if len(a.history) > appHistoryLimit {
			a.history = a.history[len(a.history)-appHistoryLimit:]
		}
	}
	return delta
}

// republish re-checks the foreground app and re-emits the snapshot
// regardless of change.
func (a *AppSessions) republish() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if pkg, err := a.stream.CurrentApp(ctx); err == nil && pkg != "" {
		a.handleEvent(models.AppUsageEvent{Package: pkg, Timestamp: time.Now()})
	}

	a.mu.Lock()
	if a.state != models.ProcessorActive {
		a.mu.Unlock()
		return
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()
	a.emitter.EmitData(a.desc.ID, snap)
}

func (a *AppSessions) snapshotLocked() models.AppSessionsSnapshot {
	total := a.positiveSeconds + a.negativeSeconds + a.neutralSeconds
	points := a.totalPoints
	if points < 0 {
		points = 0
	}
	return models.AppSessionsSnapshot{
		TotalMinutes:    int(total / 60),
		PositiveSeconds: int(a.positiveSeconds),
		NegativeSeconds: int(a.negativeSeconds),
		NeutralSeconds:  int(a.neutralSeconds),
		LastApp:         a.currentApp,
		LastAppCategory: a.currentCategory,
		TotalPoints:     points,
		History:         a.history,
	}
}
