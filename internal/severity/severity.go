// Package severity maps event source levels to sink levels.
package severity

import "github.com/V4T54L/eventbridge/internal/domain"

// DefaultSinkLevel is used for levels outside the known enumeration.
const DefaultSinkLevel = domain.SinkDebug

// ToSinkLevel converts an event level to the level used by the sink.
// Verbose maps to SinkNone, so verbose events reach the sink but are never written.
func ToSinkLevel(level domain.EventLevel) domain.SinkLevel {
	switch level {
	case domain.LevelLogAlways:
		return domain.SinkDebug
	case domain.LevelCritical:
		return domain.SinkCritical
	case domain.LevelError:
		return domain.SinkError
	case domain.LevelWarning:
		return domain.SinkWarn
	case domain.LevelInformational:
		return domain.SinkInfo
	case domain.LevelVerbose:
		return domain.SinkNone
	default:
		return DefaultSinkLevel
	}
}
