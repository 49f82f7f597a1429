package types

// Event is a structured record of a single state transition. Attributes are
// flat string pairs so downstream relayers can consume them without knowing
// the emitting module's internal types.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
