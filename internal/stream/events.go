package stream

// EventType classifies parser output.
type EventType string

const (
	// EventText is pass-through content outside any tool invocation.
	EventText EventType = "text"
	// EventUpdate reports a started invocation or grown parameter set.
	EventUpdate EventType = "update"
	// EventEnd reports a finalized, schema-valid invocation.
	EventEnd EventType = "end"
	// EventError reports a validation failure or an unclosed invocation.
	EventError EventType = "error"
)

// Event is one parser output. Events for a given invocation id are always
// delivered in order; Feed and End return them as ordered slices, so they
// can be consumed synchronously or forwarded to a channel.
type Event struct {
	Type   EventType
	ID     string            // invocation id; empty for text events
	Tool   string            // tool name; empty for text events
	Params map[string]string // snapshot of the parameter map
	Text   string            // pass-through content for text events
	Err    error             // set on error events
}
