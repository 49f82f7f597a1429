package events

// Event represents a structured state change emitted by the custody engines.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (relayers, indexers,
// the gateway's webhook queue).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
// Engines fall back to it when no emitter has been configured.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
