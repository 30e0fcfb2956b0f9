package manager

// emissionKind discriminates bus messages.
type emissionKind int

const (
	emitData emissionKind = iota
	emitPoints
)

// emission is one message on the internal bus. Processors produce them
// through the Emitter methods; the dispatch goroutine forwards them to the
// registered callback pair and to persistence.
type emission struct {
	kind     emissionKind
	sensorID string
	snapshot any
	delta    int
}

// busCapacity bounds the emission channel. Sensors emit at human timescales,
// so a modest buffer absorbs any dispatch hiccup.
const busCapacity = 256
