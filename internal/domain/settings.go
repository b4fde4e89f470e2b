package domain

// EventFilter decides whether an event is forwarded to the sink.
type EventFilter func(event RawEvent) bool

// PayloadTransform renders a payload value before it is logged.
// It is never consulted for fields classified as Sensitive.
type PayloadTransform func(name string, value any) any

// SourceSettings determines which events of a source are logged and how.
type SourceSettings struct {
	MinLevel       EventLevel
	IncludePayload bool
	Filter         EventFilter
	Transform      PayloadTransform
}

// DefaultSettings returns the settings used when only a level is given.
func DefaultSettings(level EventLevel) *SourceSettings {
	return &SourceSettings{MinLevel: level, IncludePayload: true}
}

// Clone returns a shallow copy of the settings.
func (s *SourceSettings) Clone() *SourceSettings {
	c := *s
	return &c
}
