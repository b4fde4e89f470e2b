package domain

// EventSource is the static side of an event producer: its name, identity and
// the payload declarations of its events.
type EventSource interface {
	Name() string
	Identity() SourceIdentity
	PayloadClassifications() []ClassificationEntry
}

// EventHandler receives events on the delivering goroutine. It must not block.
type EventHandler func(event RawEvent)

// EventListener subscribes to event sources.
// Implementations wrap the tracing facility that actually produces the events.
type EventListener interface {
	// EnableEvents starts delivery of events written by source at or above level.
	// Enabling an already enabled source replaces its level.
	EnableEvents(source EventSource, level EventLevel, handler EventHandler) error

	// Close detaches the listener from every source. Events already being
	// delivered may still complete after Close returns.
	Close() error
}

// Sink accepts pre-rendered log lines.
type Sink interface {
	Log(level SinkLevel, err error, message string)
}
