package sensors

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/lifesync/lifesync-core/internal/detection"
	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/timer"
)

const (
	// usageTickInterval is how often phone activity is re-checked.
	usageTickInterval = 10 * time.Second
	// minuteProcessThreshold is the continuous-active duration after which
	// one minute is scored incrementally and the interval restarts.
	minuteProcessThreshold = 60 * time.Second

	healthyStartHour = 6
	healthyEndHour   = 22

	// healthyMinutesPerPoint and unhealthyMinutesPerPoint convert cumulative
	// minutes to points. Unhealthy minutes are penalized twice as fast.
	healthyMinutesPerPoint   = 10
	unhealthyMinutesPerPoint = 5

	phoneSessionLimit = 100
)

// PhoneUsage tracks whether any app is foreground at all, scoring active
// time against the healthy-hours policy. Long continuous sessions are scored
// one minute at a time rather than only at session end.
type PhoneUsage struct {
	desc     models.SensorDescriptor
	detector detection.Detector
	stream   *detection.Stream
	timers   *timer.Registry
	emitter  Emitter

	mu          sync.Mutex
	state       models.ProcessorState
	unsubscribe func()
	tickID      string

	active        bool
	sessionStart  time.Time
	intervalStart time.Time

	healthyMinutes   float64
	unhealthyMinutes float64
	pickups          int
	totalPoints      int

	sessions            []models.PhoneSession
	sessionsRecorded    int
	sessionMinutesTotal float64
}

// NewPhoneUsage creates a phone usage tracker.
func NewPhoneUsage(desc models.SensorDescriptor, deps Deps, emitter Emitter) *PhoneUsage {
	return &PhoneUsage{
		desc:     desc,
		detector: deps.Detector,
		stream:   deps.Stream,
		timers:   deps.Timers,
		emitter:  emitter,
		state:    models.ProcessorInactive,
	}
}

// Start verifies detection permission and begins the periodic activity check.
func (p *PhoneUsage) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state == models.ProcessorActive {
		p.mu.Unlock()
		return models.ErrAlreadyActive
	}
	p.state = models.ProcessorStarting
	p.mu.Unlock()

	if err := checkDetection(ctx, p.detector); err != nil {
		p.mu.Lock()
		p.state = models.ProcessorInactive
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.unsubscribe = p.stream.Subscribe(p.handlePickup)
	p.tickID = p.timers.ScheduleEvery(usageTickInterval, p.tick)
	p.state = models.ProcessorActive
	p.mu.Unlock()

	slog.Info("PhoneUsage started", "sensorID", p.desc.ID)
	return nil
}

// Stop closes the open session, then releases the tick and subscription.
func (p *PhoneUsage) Stop() error {
	p.mu.Lock()
	if p.state != models.ProcessorActive {
		p.mu.Unlock()
		return nil
	}
	p.state = models.ProcessorStopping

	now := time.Now()
	pointsDelta := 0
	if p.active {
		pointsDelta = p.closeSessionLocked(now, isHealthyHour(now))
	}
	unsub := p.unsubscribe
	p.unsubscribe = nil
	tickID := p.tickID
	p.tickID = ""
	p.mu.Unlock()

	if tickID != "" {
		p.timers.Cancel(tickID)
	}
	if unsub != nil {
		unsub()
	}

	p.mu.Lock()
	p.state = models.ProcessorInactive
	snap := p.snapshotLocked(now)
	p.mu.Unlock()

	if pointsDelta != 0 {
		p.emitter.EmitPoints(p.desc.ID, pointsDelta)
	}
	p.emitter.EmitData(p.desc.ID, snap)
	slog.Info("PhoneUsage stopped", "sensorID", p.desc.ID, "totalMinutes", snap.TotalMinutes)
	return nil
}

// Snapshot implements Processor.
func (p *PhoneUsage) Snapshot() (models.StateRecord, error) {
	p.mu.Lock()
	snap := p.snapshotLocked(time.Now())
	p.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return models.StateRecord{}, err
	}
	return models.StateRecord{SensorID: p.desc.ID, Type: p.desc.Type, UpdatedAt: time.Now(), Data: data}, nil
}

// Restore implements Processor.
func (p *PhoneUsage) Restore(rec models.StateRecord) error {
	if rec.Type != p.desc.Type {
		return models.ErrStateRecordTypeMismatch
	}
	var snap models.PhoneUsageSnapshot
	if err := json.Unmarshal(rec.Data, &snap); err != nil {
		return err
	}

	p.mu.Lock()
	p.healthyMinutes = snap.HealthyMinutes
	p.unhealthyMinutes = snap.UnhealthyMinutes
	p.pickups = snap.Pickups
	p.totalPoints = snap.TotalPoints
	p.sessions = snap.Sessions
	p.sessionsRecorded = len(snap.Sessions)
	for _, s := range snap.Sessions {
		p.sessionMinutesTotal += s.Minutes
	}
	p.mu.Unlock()
	slog.Debug("PhoneUsage restored", "sensorID", p.desc.ID, "totalPoints", snap.TotalPoints)
	return nil
}

// Refresh runs the activity check once and re-emits the snapshot.
func (p *PhoneUsage) Refresh(ctx context.Context) error {
	p.tick()
	return nil
}

// State implements Processor.
func (p *PhoneUsage) State() models.ProcessorState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// handlePickup counts every observed foreground change as an engagement.
func (p *PhoneUsage) handlePickup(ev models.AppUsageEvent) {
	if ev.Package == "" {
		return
	}
	p.mu.Lock()
	if p.state == models.ProcessorActive {
		p.pickups++
	}
	p.mu.Unlock()
}

// tick re-checks phone activity and advances the session state machine.
func (p *PhoneUsage) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pkg, err := p.stream.CurrentApp(ctx)
	if err != nil {
		slog.Debug("PhoneUsage activity check failed", "sensorID", p.desc.ID, "error", err)
		return
	}

	now := time.Now()
	nowActive := pkg != ""
	healthy := isHealthyHour(now)

	p.mu.Lock()
	if p.state != models.ProcessorActive {
		p.mu.Unlock()
		return
	}

	pointsDelta := 0
	switch {
	case nowActive && !p.active:
		p.active = true
		p.sessionStart = now
		p.intervalStart = now
		slog.Debug("PhoneUsage session opened", "sensorID", p.desc.ID, "healthy", healthy)

	case nowActive && p.active:
		if now.Sub(p.intervalStart) >= minuteProcessThreshold {
			pointsDelta = p.scoreMinutesLocked(1, healthy)
			p.intervalStart = now
		}

	case !nowActive && p.active:
		pointsDelta = p.closeSessionLocked(now, healthy)
	}

	snap := p.snapshotLocked(now)
	p.mu.Unlock()

	if pointsDelta != 0 {
		p.emitter.EmitPoints(p.desc.ID, pointsDelta)
	}
	p.emitter.EmitData(p.desc.ID, snap)
}

// scoreMinutesLocked adds minutes to the matching cumulative bucket and
// returns the points delta from threshold crossings. Healthy minutes award
// on every 10-minute boundary, unhealthy minutes deduct on every 5-minute
// boundary. Caller holds p.mu.
func (p *PhoneUsage) scoreMinutesLocked(minutes float64, healthy bool) int {
	delta := 0
	if healthy {
		before := int(p.healthyMinutes) / healthyMinutesPerPoint
		p.healthyMinutes += minutes
		delta = int(p.healthyMinutes)/healthyMinutesPerPoint - before
	} else {
		before := int(p.unhealthyMinutes) / unhealthyMinutesPerPoint
		p.unhealthyMinutes += minutes
		delta = -(int(p.unhealthyMinutes)/unhealthyMinutesPerPoint - before)
	}
	p.totalPoints += delta
	return delta
}

// closeSessionLocked performs final partial-minute scoring and records the
// session. Caller holds p.mu.
func (p *PhoneUsage) closeSessionLocked(now time.Time, healthy bool) int {
	delta := p.scoreMinutesLocked(now.Sub(p.intervalStart).Minutes(), healthy)

	minutes := now.Sub(p.sessionStart).Minutes()
	p.sessions = append(p.sessions, models.PhoneSession{
		Start:      p.sessionStart,
		End:        now,
		Minutes:    minutes,
		WasHealthy: healthy,
	})
	if len(p.sessions) > phoneSessionLimit {
		p.sessions = p.sessions[len(p.sessions)-phoneSessionLimit:]
	}
	p.sessionsRecorded++
	p.sessionMinutesTotal += minutes

	p.active = false
	p.sessionStart = time.Time{}
	p.intervalStart = time.Time{}
	slog.Debug("PhoneUsage session closed", "sensorID", p.desc.ID, "minutes", minutes, "healthy", healthy)
	return delta
}

func (p *PhoneUsage) snapshotLocked(now time.Time) models.PhoneUsageSnapshot {
	avg := 0.0
	if p.sessionsRecorded > 0 {
		avg = p.sessionMinutesTotal / float64(p.sessionsRecorded)
	}
	points := p.totalPoints
	if points < 0 {
		points = 0
	}
	return models.PhoneUsageSnapshot{
		TotalMinutes:     p.healthyMinutes + p.unhealthyMinutes,
		HealthyMinutes:   p.healthyMinutes,
		UnhealthyMinutes: p.unhealthyMinutes,
		Pickups:          p.pickups,
		AvgSessionMin:    avg,
		IsHealthyHour:    isHealthyHour(now),
		TotalPoints:      points,
		Sessions:         p.sessions,
	}
}

// isHealthyHour reports whether the local time falls in [06:00, 22:00).
func isHealthyHour(t time.Time) bool {
	h := t.Hour()
	return h >= healthyStartHour && h < healthyEndHour
}
