package sensors

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/lifesync/lifesync-core/internal/models"
)

const (
	// smoothingWindow is the moving-average width over raw magnitudes.
	smoothingWindow = 3
	// regimeWindow is how many smoothed samples feed vehicle classification.
	regimeWindow = 20

	stepThreshold      = 0.12
	largeStepThreshold = 0.18
	minStepGap         = 200 * time.Millisecond
	shortStepGap       = 150 * time.Millisecond
	maxStepGap         = 2 * time.Second
	longStepGap        = 3 * time.Second
	minWalkMagnitude   = 0.5
	maxWalkMagnitude   = 2.0

	stepLengthMeters = 0.7
	caloriesPerStep  = 0.04
	stepsPerPoint    = 500

	vehicleStdDevMax     = 0.05
	vehicleRangeMax      = 0.3
	vehicleChangeFreqMin = 0.6
	vehicleSmallChange   = 0.05
	vehicleMeanLow       = 0.8
	vehicleMeanHigh      = 1.3
	vehicleIndicatorsMin = 3
)

// StepCounter detects steps from a continuous accelerometer sample stream.
// Raw magnitudes are smoothed over a short moving average; a longer rolling
// window classifies the motion regime so sustained vehicle vibration does
// not count as walking.
type StepCounter struct {
	desc    models.SensorDescriptor
	samples interface {
		Available() bool
		SubscribeSamples(fn func(s models.AccelSample)) func()
	}
	emitter Emitter

	mu          sync.Mutex
	state       models.ProcessorState
	unsubscribe func()

	steps        int
	inVehicle    bool
	raw          []float64
	smoothed     []float64
	lastSmoothed float64
	haveBaseline bool
	lastStepTime time.Time
}

// NewStepCounter creates a step counter over the injected sample source.
func NewStepCounter(desc models.SensorDescriptor, deps Deps, emitter Emitter) *StepCounter {
	return &StepCounter{
		desc:    desc,
		samples: deps.Samples,
		emitter: emitter,
		state:   models.ProcessorInactive,
	}
}

// Start subscribes to the accelerometer. Fails fatally when no sample feed
// is attached; there is no simulation fallback.
func (s *StepCounter) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.ProcessorActive {
		return models.ErrAlreadyActive
	}
	s.state = models.ProcessorStarting

	if !s.samples.Available() {
		s.state = models.ProcessorInactive
		return models.ErrAccelerometerUnavailable
	}

	s.unsubscribe = s.samples.SubscribeSamples(s.handleSample)
	s.state = models.ProcessorActive
	slog.Info("StepCounter started", "sensorID", s.desc.ID)
	return nil
}

// Stop releases the accelerometer subscription and emits a final snapshot.
func (s *StepCounter) Stop() error {
	s.mu.Lock()
	if s.state != models.ProcessorActive {
		s.mu.Unlock()
		return nil
	}
	s.state = models.ProcessorStopping
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	s.mu.Lock()
	s.state = models.ProcessorInactive
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emitter.EmitData(s.desc.ID, snap)
	slog.Info("StepCounter stopped", "sensorID", s.desc.ID, "steps", snap.Steps)
	return nil
}

// Snapshot implements Processor.
func (s *StepCounter) Snapshot() (models.StateRecord, error) {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return models.StateRecord{}, err
	}
	return models.StateRecord{SensorID: s.desc.ID, Type: s.desc.Type, UpdatedAt: time.Now(), Data: data}, nil
}

// Restore implements Processor. Only the cumulative step count carries over;
// smoothing windows and regime state restart from scratch.
func (s *StepCounter) Restore(rec models.StateRecord) error {
	if rec.Type != s.desc.Type {
		return models.ErrStateRecordTypeMismatch
	}
	var snap models.StepSnapshot
	if err := json.Unmarshal(rec.Data, &snap); err != nil {
		return err
	}

	s.mu.Lock()
	s.steps = snap.Steps
	s.mu.Unlock()
	slog.Debug("StepCounter restored", "sensorID", s.desc.ID, "steps", snap.Steps)
	return nil
}

// Refresh re-emits the current snapshot.
func (s *StepCounter) Refresh(ctx context.Context) error {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emitter.EmitData(s.desc.ID, snap)
	return nil
}

// State implements Processor.
func (s *StepCounter) State() models.ProcessorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StepCounter) snapshotLocked() models.StepSnapshot {
	return models.StepSnapshot{
		Steps:      s.steps,
		DistanceKm: float64(s.steps) * stepLengthMeters / 1000,
		Calories:   int(float64(s.steps) * caloriesPerStep),
		InVehicle:  s.inVehicle,
	}
}

func (s *StepCounter) handleSample(sample models.AccelSample) {
	mag := math.Sqrt(sample.X*sample.X + sample.Y*sample.Y + sample.Z*sample.Z)
	now := time.Now()

	s.mu.Lock()
	// A sample callback can be in flight across Stop; it must not count.
	if s.state != models.ProcessorActive {
		s.mu.Unlock()
		return
	}

	s.raw = append(s.raw, mag)
	if len(s.raw) > smoothingWindow {
		s.raw = s.raw[1:]
	}
	smoothed := mean(s.raw)

	s.smoothed = append(s.smoothed, smoothed)
	if len(s.smoothed) > regimeWindow {
		s.smoothed = s.smoothed[1:]
	}
	s.updateRegimeLocked()

	if !s.haveBaseline {
		s.lastSmoothed = smoothed
		s.haveBaseline = true
		s.mu.Unlock()
		return
	}
	delta := math.Abs(smoothed - s.lastSmoothed)
	s.lastSmoothed = smoothed

	if s.inVehicle {
		s.mu.Unlock()
		return
	}

	if delta > stepThreshold &&
		s.stepIntervalOKLocked(delta, now) &&
		smoothed > minWalkMagnitude && smoothed < maxWalkMagnitude {
		s.steps++
		s.lastStepTime = now
		points := s.steps/stepsPerPoint - (s.steps-1)/stepsPerPoint
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.emitter.EmitData(s.desc.ID, snap)
		if points > 0 {
			slog.Info("StepCounter points earned", "sensorID", s.desc.ID, "steps", snap.Steps, "points", points)
			s.emitter.EmitPoints(s.desc.ID, points)
		}
		return
	}
	s.mu.Unlock()
}

// stepIntervalOKLocked applies the step cadence policy. Caller holds s.mu.
func (s *StepCounter) stepIntervalOKLocked(delta float64, now time.Time) bool {
	if s.lastStepTime.IsZero() {
		return true
	}
	gap := now.Sub(s.lastStepTime)
	if gap > longStepGap {
		return true
	}
	if gap > minStepGap && gap < maxStepGap {
		return true
	}
	// A sharp change permits a quicker cadence.
	if delta > largeStepThreshold && gap > shortStepGap {
		return true
	}
	return false
}

// updateRegimeLocked re-classifies the motion regime from the full rolling
// window. Vehicle motion shows sustained low-amplitude vibration around 1g.
// Caller holds s.mu.
func (s *StepCounter) updateRegimeLocked() {
	if len(s.smoothed) < regimeWindow {
		return
	}

	m := mean(s.smoothed)
	variance := 0.0
	minV, maxV := s.smoothed[0], s.smoothed[0]
	changes := 0
	for i, v := range s.smoothed {
		variance += (v - m) * (v - m)
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		if i > 0 && math.Abs(v-s.smoothed[i-1]) > vehicleSmallChange {
			changes++
		}
	}
	stdDev := math.Sqrt(variance / float64(len(s.smoothed)))
	changeFreq := float64(changes) / float64(len(s.smoothed)-1)

	indicators := 0
	if stdDev < vehicleStdDevMax {
		indicators++
	}
	if maxV-minV < vehicleRangeMax {
		indicators++
	}
	if changeFreq > vehicleChangeFreqMin {
		indicators++
	}
	if m > vehicleMeanLow && m < vehicleMeanHigh {
		indicators++
	}

	inVehicle := indicators >= vehicleIndicatorsMin
	if inVehicle != s.inVehicle {
		slog.Info("StepCounter motion regime changed", "sensorID", s.desc.ID, "inVehicle", inVehicle,
			"stdDev", stdDev, "range", maxV-minV, "changeFreq", changeFreq, "mean", m)
	}
	s.inVehicle = inVehicle
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
