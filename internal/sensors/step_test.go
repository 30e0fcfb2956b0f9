package sensors

import (
	"sync"
	"testing"
	"time"

	"github.com/lifesync/lifesync-core/internal/models"
)

// recordingEmitter captures emissions for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	data   []any
	points []int
}

func (e *recordingEmitter) EmitData(sensorID string, snapshot any) {
	e.mu.Lock()
	e.data = append(e.data, snapshot)
	e.mu.Unlock()
}

func (e *recordingEmitter) EmitPoints(sensorID string, delta int) {
	e.mu.Lock()
	e.points = append(e.points, delta)
	e.mu.Unlock()
}

func (e *recordingEmitter) totalPoints() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, p := range e.points {
		total += p
	}
	return total
}

func stepDesc() models.SensorDescriptor {
	d, _ := models.DescriptorByID("3")
	return d
}

func newTestStepCounter(emitter *recordingEmitter) *StepCounter {
	c := NewStepCounter(stepDesc(), Deps{}, emitter)
	c.state = models.ProcessorActive
	return c
}

func TestStepThresholdIsStrict(t *testing.T) {
	emitter := &recordingEmitter{}
	c := newTestStepCounter(emitter)

	// Baseline of zero makes the computed delta bit-identical to the
	// threshold constant, which must not count.
	c.haveBaseline = true
	c.lastSmoothed = 0
	c.handleSample(models.AccelSample{Z: stepThreshold})
	if c.steps != 0 {
		t.Errorf("delta equal to threshold counted a step")
	}

	// Just above threshold with in-band magnitude counts exactly one.
	c2 := newTestStepCounter(emitter)
	c2.haveBaseline = true
	c2.lastSmoothed = 1.0
	c2.handleSample(models.AccelSample{Z: 1.13})
	if c2.steps != 1 {
		t.Errorf("expected exactly one step, got %d", c2.steps)
	}
}

func TestStepRequiresWalkingMagnitude(t *testing.T) {
	emitter := &recordingEmitter{}
	c := newTestStepCounter(emitter)
	c.haveBaseline = true
	c.lastSmoothed = 2.5

	// Large delta but smoothed magnitude above the walking band.
	c.handleSample(models.AccelSample{Z: 2.9})
	if c.steps != 0 {
		t.Errorf("out-of-band magnitude counted a step")
	}
}

func TestStepPointConversionBoundaries(t *testing.T) {
	emitter := &recordingEmitter{}
	c := newTestStepCounter(emitter)
	c.steps = 499

	walkStep := func() {
		c.mu.Lock()
		c.raw = nil
		c.smoothed = nil
		c.inVehicle = false
		c.haveBaseline = true
		c.lastSmoothed = 1.0
		c.lastStepTime = time.Now().Add(-time.Second)
		c.mu.Unlock()
		c.handleSample(models.AccelSample{Z: 1.15})
	}

	// 499 -> 500 crosses a boundary.
	walkStep()
	if c.steps != 500 {
		t.Fatalf("expected 500 steps, got %d", c.steps)
	}
	if got := emitter.totalPoints(); got != 1 {
		t.Errorf("expected +1 point at 500 steps, got %d", got)
	}

	// 500 -> 999 crosses nothing.
	for c.steps < 999 {
		walkStep()
	}
	if got := emitter.totalPoints(); got != 1 {
		t.Errorf("expected no points between 500 and 999, total %d", got)
	}

	// 999 -> 1000 crosses the next boundary.
	walkStep()
	if got := emitter.totalPoints(); got != 2 {
		t.Errorf("expected +1 point at 1000 steps, total %d", got)
	}
}

func TestVehicleRegimeSuppressesSteps(t *testing.T) {
	emitter := &recordingEmitter{}
	c := newTestStepCounter(emitter)

	// Low-amplitude oscillation around 1g: small range, high change
	// frequency, mean near 1g. Smoothed deltas still exceed the step
	// threshold.
	for i := 0; i < regimeWindow*2; i++ {
		z := 0.8
		if i%2 == 0 {
			z = 1.25
		}
		c.handleSample(models.AccelSample{Z: z})
	}
	if !c.inVehicle {
		t.Fatal("expected vehicle regime after sustained oscillation")
	}

	before := c.steps
	for i := 0; i < 10; i++ {
		z := 0.8
		if i%2 == 0 {
			z = 1.25
		}
		c.mu.Lock()
		c.lastStepTime = time.Now().Add(-time.Second)
		c.mu.Unlock()
		c.handleSample(models.AccelSample{Z: z})
	}
	if c.steps != before {
		t.Errorf("steps counted while in vehicle regime: %d -> %d", before, c.steps)
	}
}

func TestStepHandlerIgnoredWhenInactive(t *testing.T) {
	emitter := &recordingEmitter{}
	c := newTestStepCounter(emitter)
	c.haveBaseline = true
	c.lastSmoothed = 1.0
	c.state = models.ProcessorInactive

	// A sample callback still in flight when Stop resolved.
	c.handleSample(models.AccelSample{Z: 1.13})
	if c.steps != 0 {
		t.Errorf("inactive counter counted %d steps", c.steps)
	}
	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	if len(emitter.data) != 0 {
		t.Errorf("inactive counter emitted %d snapshots", len(emitter.data))
	}
}

func TestStepSnapshotRoundTrip(t *testing.T) {
	emitter := &recordingEmitter{}
	c := newTestStepCounter(emitter)
	c.steps = 1500

	rec, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if rec.Type != models.SensorTypeStepCount {
		t.Errorf("unexpected record type %q", rec.Type)
	}

	c2 := newTestStepCounter(emitter)
	if err := c2.Restore(rec); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if c2.steps != 1500 {
		t.Errorf("expected 1500 restored steps, got %d", c2.steps)
	}

	// Wrong record type is rejected.
	rec.Type = models.SensorTypePhoneUsage
	if err := c2.Restore(rec); err != models.ErrStateRecordTypeMismatch {
		t.Errorf("expected type mismatch error, got %v", err)
	}
}
