package sensors

import (
	"testing"
	"time"

	"github.com/lifesync/lifesync-core/internal/models"
)

func appSessionsDesc() models.SensorDescriptor {
	d, _ := models.DescriptorByID("1")
	return d
}

func newTestAppSessions(emitter *recordingEmitter) *AppSessions {
	a := NewAppSessions(appSessionsDesc(), Deps{}, emitter)
	a.state = models.ProcessorActive
	return a
}

func TestAppSessionsIntervalAttribution(t *testing.T) {
	emitter := &recordingEmitter{}
	a := newTestAppSessions(emitter)

	t0 := time.Now()
	// Instagram is negative, Duolingo positive, Chrome neutral.
	a.handleEvent(models.AppUsageEvent{Package: "com.instagram.android", Timestamp: t0})
	a.handleEvent(models.AppUsageEvent{Package: "com.duolingo", Timestamp: t0.Add(100 * time.Second)})
	a.handleEvent(models.AppUsageEvent{Package: "com.android.chrome", Timestamp: t0.Add(400 * time.Second)})

	// 100s of a negative app is under the 5-minute threshold: 0 points.
	// 300s of a positive app is exactly 5 minutes: +1 point.
	if got := emitter.totalPoints(); got != 1 {
		t.Errorf("total points = %d, want 1", got)
	}
	if int(a.negativeSeconds) != 100 {
		t.Errorf("negativeSeconds = %v, want 100", a.negativeSeconds)
	}
	if int(a.positiveSeconds) != 300 {
		t.Errorf("positiveSeconds = %v, want 300", a.positiveSeconds)
	}
	if a.currentApp != "Chrome" {
		t.Errorf("currentApp = %q, want Chrome", a.currentApp)
	}
}

func TestAppSessionsNegativeAppDeductsPoints(t *testing.T) {
	emitter := &recordingEmitter{}
	a := newTestAppSessions(emitter)

	t0 := time.Now()
	a.handleEvent(models.AppUsageEvent{Package: "com.instagram.android", Timestamp: t0})
	a.handleEvent(models.AppUsageEvent{Package: "com.duolingo", Timestamp: t0.Add(11 * time.Minute)})

	// 11 minutes of a negative app: -floor(11/5) = -2.
	if got := emitter.totalPoints(); got != -2 {
		t.Errorf("total points = %d, want -2", got)
	}
	// The displayed total never goes negative.
	snap := a.snapshotLocked()
	if snap.TotalPoints != 0 {
		t.Errorf("snapshot TotalPoints = %d, want 0", snap.TotalPoints)
	}
}

func TestAppSessionsFiltersSystemPackages(t *testing.T) {
	emitter := &recordingEmitter{}
	a := newTestAppSessions(emitter)

	t0 := time.Now()
	a.handleEvent(models.AppUsageEvent{Package: "com.duolingo", Timestamp: t0})
	a.handleEvent(models.AppUsageEvent{Package: "com.android.launcher3", Timestamp: t0.Add(time.Minute)})

	// The launcher neither closes the open interval nor becomes current.
	if a.currentApp != "Duolingo" {
		t.Errorf("currentApp = %q, want Duolingo", a.currentApp)
	}
	if a.positiveSeconds != 0 {
		t.Errorf("interval closed by system package: %v positive seconds", a.positiveSeconds)
	}
}

func TestAppSessionsRepeatedAppIsNoOp(t *testing.T) {
	emitter := &recordingEmitter{}
	a := newTestAppSessions(emitter)

	t0 := time.Now()
	a.handleEvent(models.AppUsageEvent{Package: "com.duolingo", Timestamp: t0})
	start := a.intervalStart
	a.handleEvent(models.AppUsageEvent{Package: "com.duolingo", Timestamp: t0.Add(time.Minute)})

	if !a.intervalStart.Equal(start) {
		t.Error("repeated identifier restarted the open interval")
	}
}

func TestAppSessionsHistoryOnlyScoredCategories(t *testing.T) {
	emitter := &recordingEmitter{}
	a := newTestAppSessions(emitter)

	t0 := time.Now()
	a.handleEvent(models.AppUsageEvent{Package: "com.android.chrome", Timestamp: t0})
	a.handleEvent(models.AppUsageEvent{Package: "com.instagram.android", Timestamp: t0.Add(time.Minute)})
	a.handleEvent(models.AppUsageEvent{Package: "com.duolingo", Timestamp: t0.Add(2 * time.Minute)})

	// Chrome (neutral) accumulates time but leaves no history entry.
	if len(a.history) != 1 {
		t.Fatalf("history length = %d, want 1", len(a.history))
	}
	if a.history[0].App != "Instagram" || a.history[0].Category != models.AppCategoryNegative {
		t.Errorf("unexpected history entry: %+v", a.history[0])
	}
	if int(a.neutralSeconds) != 60 {
		t.Errorf("neutralSeconds = %v, want 60", a.neutralSeconds)
	}
}

func TestAppSessionsSnapshotRoundTrip(t *testing.T) {
	emitter := &recordingEmitter{}
	a := newTestAppSessions(emitter)
	a.positiveSeconds = 600
	a.negativeSeconds = 300
	a.totalPoints = 3
	a.history = []models.AppHistoryEntry{{App: "Duolingo", Category: models.AppCategoryPositive, Seconds: 600}}

	rec, err := a.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	b := NewAppSessions(appSessionsDesc(), Deps{}, emitter)
	if err := b.Restore(rec); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if b.positiveSeconds != 600 || b.negativeSeconds != 300 || b.totalPoints != 3 {
		t.Errorf("restored state mismatch: pos=%v neg=%v points=%d", b.positiveSeconds, b.negativeSeconds, b.totalPoints)
	}
	if len(b.history) != 1 {
		t.Errorf("history not restored: %v", b.history)
	}
	// The open interval never survives a restore.
	if b.currentApp != "" || !b.intervalStart.IsZero() {
		t.Errorf("open interval restored: app=%q start=%v", b.currentApp, b.intervalStart)
	}
}
