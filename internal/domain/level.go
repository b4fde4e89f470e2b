package domain

import (
	"fmt"
	"strings"
)

// EventLevel is the severity an event source declares for an event.
// Lower values are more severe; LogAlways enables every level when used as a subscription level.
type EventLevel int

const (
	LevelLogAlways EventLevel = iota
	LevelCritical
	LevelError
	LevelWarning
	LevelInformational
	LevelVerbose
)

var eventLevelNames = map[EventLevel]string{
	LevelLogAlways:     "LogAlways",
	LevelCritical:      "Critical",
	LevelError:         "Error",
	LevelWarning:       "Warning",
	LevelInformational: "Informational",
	LevelVerbose:       "Verbose",
}

func (l EventLevel) String() string {
	if name, ok := eventLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("EventLevel(%d)", int(l))
}

// Enables reports whether a subscription at level l receives events written at level event.
func (l EventLevel) Enables(event EventLevel) bool {
	return l == LevelLogAlways || event <= l
}

// ParseEventLevel parses a level name case-insensitively.
func ParseEventLevel(s string) (EventLevel, error) {
	needle := strings.TrimSpace(s)
	for level, name := range eventLevelNames {
		if strings.EqualFold(name, needle) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown event level %q", ErrInvalidArgument, s)
}

// SinkLevel is the severity understood by the logging sink.
type SinkLevel int

const (
	SinkTrace SinkLevel = iota
	SinkDebug
	SinkInfo
	SinkWarn
	SinkError
	SinkCritical
	SinkNone // never written by a sink
)

func (l SinkLevel) String() string {
	switch l {
	case SinkTrace:
		return "trace"
	case SinkDebug:
		return "debug"
	case SinkInfo:
		return "info"
	case SinkWarn:
		return "warn"
	case SinkError:
		return "error"
	case SinkCritical:
		return "critical"
	case SinkNone:
		return "none"
	default:
		return fmt.Sprintf("SinkLevel(%d)", int(l))
	}
}
