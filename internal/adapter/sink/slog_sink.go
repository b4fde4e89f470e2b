package sink

import (
	"context"
	"log/slog"

	"github.com/V4T54L/eventbridge/internal/domain"
)

// Extra slog levels for sink levels slog does not define.
const (
	LevelTrace    = slog.Level(-8)
	LevelCritical = slog.Level(12)
)

// SlogSink writes bridged events to a slog logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// SlogLevel returns the slog level for a sink level. ok is false for SinkNone
// and unknown levels, which are never written.
func SlogLevel(level domain.SinkLevel) (slog.Level, bool) {
	switch level {
	case domain.SinkTrace:
		return LevelTrace, true
	case domain.SinkDebug:
		return slog.LevelDebug, true
	case domain.SinkInfo:
		return slog.LevelInfo, true
	case domain.SinkWarn:
		return slog.LevelWarn, true
	case domain.SinkError:
		return slog.LevelError, true
	case domain.SinkCritical:
		return LevelCritical, true
	default:
		return 0, false
	}
}

// Log writes message at level.
func (s *SlogSink) Log(level domain.SinkLevel, err error, message string) {
	lvl, ok := SlogLevel(level)
	if !ok {
		return
	}
	ctx := context.Background()
	if !s.logger.Enabled(ctx, lvl) {
		return
	}
	if err != nil {
		s.logger.Log(ctx, lvl, message, "error", err)
		return
	}
	s.logger.Log(ctx, lvl, message)
}
