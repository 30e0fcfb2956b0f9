// Package manager orchestrates the sensor processors.
//
// The Manager owns the single live processor instance per sensor id for the
// lifetime of the process. Transient consumers register and re-register
// callback pairs freely; the processor underneath is never recreated. All
// processor emissions flow through one internal bus, where a dispatch
// goroutine forwards them to the current callbacks, applies point deltas to
// the clamped ledger, and persists snapshots on a throttle.
package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/sensors"
	"github.com/lifesync/lifesync-core/internal/store"
)

const (
	// persistThrottle is the minimum spacing between routine snapshot
	// writes per sensor. Final persists on stop/background are unthrottled.
	persistThrottle = 5 * time.Second
	// initTimeout bounds startup restoration; on expiry the manager
	// proceeds with defaults instead of blocking.
	initTimeout = 10 * time.Second
)

// Callbacks is the consumer-facing pair forwarded on every emission.
// Either field may be nil.
type Callbacks struct {
	OnData   func(snapshot any)
	OnPoints func(delta int, total int)
}

// BacklogReplayer re-delivers detection events buffered while the engine
// was backgrounded.
type BacklogReplayer interface {
	ReplayBacklog() int
}

// Manager is the process-wide sensor orchestrator.
type Manager struct {
	store    *store.Store
	deps     sensors.Deps
	replayer BacklogReplayer

	newProcessor func(models.SensorDescriptor, sensors.Deps, sensors.Emitter) (sensors.Processor, error)

	emissions chan emission
	done      chan struct{}
	wg        sync.WaitGroup

	mu          sync.RWMutex
	processors  map[string]sensors.Processor
	descriptors map[string]models.SensorDescriptor
	callbacks   map[string]Callbacks
	lastPersist map[string]time.Time
}

// NewManager creates a manager and starts its dispatch goroutine.
func NewManager(st *store.Store, deps sensors.Deps, replayer BacklogReplayer) *Manager {
	m := &Manager{
		store:        st,
		deps:         deps,
		replayer:     replayer,
		newProcessor: sensors.New,
		emissions:    make(chan emission, busCapacity),
		done:         make(chan struct{}),
		processors:   make(map[string]sensors.Processor),
		descriptors:  make(map[string]models.SensorDescriptor),
		callbacks:    make(map[string]Callbacks),
		lastPersist:  make(map[string]time.Time),
	}
	m.wg.Add(1)
	go m.dispatch()
	return m
}

// Register makes a sensor known to the manager. Idempotent: a second call
// for the same id only swaps the callback pair; the processor instance is
// kept.
func (m *Manager) Register(desc models.SensorDescriptor, cb Callbacks) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.processors[desc.ID]; exists {
		m.callbacks[desc.ID] = cb
		slog.Debug("Manager Register swapped callbacks", "sensorID", desc.ID)
		return nil
	}

	proc, err := m.newProcessor(desc, m.deps, m)
	if err != nil {
		return err
	}
	m.processors[desc.ID] = proc
	m.descriptors[desc.ID] = desc
	m.callbacks[desc.ID] = cb
	slog.Info("Manager registered sensor", "sensorID", desc.ID, "type", string(desc.Type))
	return nil
}

// Start activates a registered sensor, restoring persisted state first.
func (m *Manager) Start(ctx context.Context, id string) error {
	m.mu.RLock()
	proc, ok := m.processors[id]
	m.mu.RUnlock()
	if !ok {
		return models.ErrNotRegistered
	}
	// A duplicate start must not replay persisted state into a live
	// processor; restore only happens across the inactive boundary.
	if proc.State() != models.ProcessorInactive {
		return models.ErrAlreadyActive
	}

	if rec, err := m.store.GetSensorState(id); err != nil {
		slog.Error("Manager failed to load persisted state", "sensorID", id, "error", err)
	} else if rec != nil {
		if err := proc.Restore(*rec); err != nil {
			slog.Error("Manager failed to restore state", "sensorID", id, "error", err)
		}
	}

	if err := proc.Start(ctx); err != nil {
		return err
	}
	m.persistActiveSet()
	slog.Info("Manager started sensor", "sensorID", id)
	return nil
}

// Stop deactivates a sensor and persists its final snapshot. The processor
// instance stays registered for a cheap restart.
func (m *Manager) Stop(id string) error {
	m.mu.RLock()
	proc, ok := m.processors[id]
	m.mu.RUnlock()
	if !ok {
		return models.ErrNotRegistered
	}

	if err := proc.Stop(); err != nil {
		return err
	}
	m.persistSnapshot(id, proc)
	m.persistActiveSet()
	slog.Info("Manager stopped sensor", "sensorID", id)
	return nil
}

// IsActive probes the processor's lifecycle state. Side-effect free.
func (m *Manager) IsActive(id string) bool {
	m.mu.RLock()
	proc, ok := m.processors[id]
	m.mu.RUnlock()
	return ok && proc.State() == models.ProcessorActive
}

// ActiveIDs lists the ids of currently active sensors.
func (m *Manager) ActiveIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, proc := range m.processors {
		if proc.State() == models.ProcessorActive {
			ids = append(ids, id)
		}
	}
	return ids
}

// OnForeground re-syncs after the engine returns to the foreground: buffered
// detection events are replayed, then every active processor refreshes once.
func (m *Manager) OnForeground(ctx context.Context) {
	if m.replayer != nil {
		if n := m.replayer.ReplayBacklog(); n > 0 {
			slog.Info("Manager replayed detection backlog", "events", n)
		}
	}

	m.mu.RLock()
	procs := make(map[string]sensors.Processor, len(m.processors))
	for id, p := range m.processors {
		if p.State() == models.ProcessorActive {
			procs[id] = p
		}
	}
	m.mu.RUnlock()

	for id, p := range procs {
		if err := p.Refresh(ctx); err != nil {
			slog.Error("Manager refresh failed", "sensorID", id, "error", err)
		}
	}
}

// OnBackground persists every active processor unthrottled. Process
// suspension may follow immediately, so this is best-effort but prompt.
func (m *Manager) OnBackground() {
	m.mu.RLock()
	procs := make(map[string]sensors.Processor, len(m.processors))
	for id, p := range m.processors {
		if p.State() == models.ProcessorActive {
			procs[id] = p
		}
	}
	m.mu.RUnlock()

	for id, p := range procs {
		m.persistSnapshot(id, p)
	}
	slog.Debug("Manager persisted state on background", "sensors", len(procs))
}

// RestoreActiveSensors starts every sensor recorded as active in storage.
// Bounded by a timeout: a stuck read means proceeding with defaults, never
// blocking startup.
func (m *Manager) RestoreActiveSensors(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	type result struct {
		ids []string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ids, err := m.store.GetActiveSensors()
		ch <- result{ids, err}
	}()

	var ids []string
	select {
	case <-ctx.Done():
		slog.Error("Manager active-set restore timed out, proceeding with defaults")
		return
	case r := <-ch:
		if r.err != nil {
			slog.Error("Manager failed to read active set", "error", r.err)
			return
		}
		ids = r.ids
	}

	for _, id := range ids {
		if err := m.Start(ctx, id); err != nil {
			slog.Error("Manager failed to restore sensor", "sensorID", id, "error", err)
		}
	}
}

// Cleanup stops everything and clears both registries and the persisted
// active set. Used on logout.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	procs := m.processors
	m.processors = make(map[string]sensors.Processor)
	m.descriptors = make(map[string]models.SensorDescriptor)
	m.callbacks = make(map[string]Callbacks)
	m.lastPersist = make(map[string]time.Time)
	m.mu.Unlock()

	for id, p := range procs {
		if err := p.Stop(); err != nil {
			slog.Error("Manager cleanup stop failed", "sensorID", id, "error", err)
		}
	}
	if err := m.store.ClearActiveSensors(); err != nil {
		slog.Error("Manager failed to clear active set", "error", err)
	}
	slog.Info("Manager cleanup complete", "stopped", len(procs))
}

// Close shuts down the dispatch goroutine. Emissions sent after Close are
// dropped.
func (m *Manager) Close() {
	close(m.done)
	m.wg.Wait()
}

// EmitData implements sensors.Emitter.
func (m *Manager) EmitData(sensorID string, snapshot any) {
	m.send(emission{kind: emitData, sensorID: sensorID, snapshot: snapshot})
}

// EmitPoints implements sensors.Emitter.
func (m *Manager) EmitPoints(sensorID string, delta int) {
	m.send(emission{kind: emitPoints, sensorID: sensorID, delta: delta})
}

func (m *Manager) send(e emission) {
	select {
	case m.emissions <- e:
	case <-m.done:
	default:
		slog.Error("Manager emission bus full, dropping", "sensorID", e.sensorID)
	}
}

// dispatch is the single consumer of the emission bus.
func (m *Manager) dispatch() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case e := <-m.emissions:
			switch e.kind {
			case emitData:
				m.handleData(e)
			case emitPoints:
				m.handlePoints(e)
			}
		}
	}
}

func (m *Manager) handleData(e emission) {
	m.mu.RLock()
	cb := m.callbacks[e.sensorID]
	proc := m.processors[e.sensorID]
	last := m.lastPersist[e.sensorID]
	m.mu.RUnlock()

	if cb.OnData != nil {
		cb.OnData(e.snapshot)
	}

	if proc == nil || time.Since(last) < persistThrottle {
		return
	}
	m.mu.Lock()
	m.lastPersist[e.sensorID] = time.Now()
	m.mu.Unlock()
	m.persistSnapshot(e.sensorID, proc)
}

func (m *Manager) handlePoints(e emission) {
	m.mu.RLock()
	cb := m.callbacks[e.sensorID]
	desc, ok := m.descriptors[e.sensorID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	total, err := m.store.ApplyPointsDelta(e.sensorID, e.delta, desc.Category)
	if err != nil {
		slog.Error("Manager failed to apply points delta", "sensorID", e.sensorID, "delta", e.delta, "error", err)
		return
	}
	slog.Info("Manager points applied", "sensorID", e.sensorID, "delta", e.delta, "total", total)

	if cb.OnPoints != nil {
		cb.OnPoints(e.delta, total)
	}
}

func (m *Manager) persistSnapshot(id string, proc sensors.Processor) {
	rec, err := proc.Snapshot()
	if err != nil {
		slog.Error("Manager snapshot failed", "sensorID", id, "error", err)
		return
	}
	if err := m.store.SaveSensorState(rec); err != nil {
		slog.Error("Manager failed to persist snapshot", "sensorID", id, "error", err)
	}
}

func (m *Manager) persistActiveSet() {
	ids := m.ActiveIDs()
	if len(ids) == 0 {
		if err := m.store.ClearActiveSensors(); err != nil {
			slog.Error("Manager failed to clear active set", "error", err)
		}
		return
	}
	if err := m.store.SaveActiveSensors(ids); err != nil {
		slog.Error("Manager failed to persist active set", "error", err)
	}
}
