package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/V4T54L/eventbridge/internal/adapter/metrics"
	"github.com/V4T54L/eventbridge/internal/adapter/pii"
	"github.com/V4T54L/eventbridge/internal/adapter/repository/memory"
	"github.com/V4T54L/eventbridge/internal/domain"
	"github.com/V4T54L/eventbridge/internal/severity"
)

// ErrBridgeDisposed is returned by EnableEvents after Dispose.
var ErrBridgeDisposed = errors.New("event bridge is disposed")

const formatFailureMessage = "failure during log formatting of event: "

// EventBridge forwards events of registered sources to a sink as single log lines.
type EventBridge struct {
	listener domain.EventListener
	sink     domain.Sink
	settings *memory.SettingsRepository
	registry *pii.Registry
	metrics  *metrics.BridgeMetrics
	logger   *slog.Logger

	// lifecycle is held shared for a whole registration and exclusively by
	// Dispose, so no registration lands after the tables are released.
	lifecycle   sync.RWMutex
	disposed    bool
	disposeOnce sync.Once
	disposeErr  error
}

// NewEventBridge creates a new EventBridge. metrics may be nil.
func NewEventBridge(
	listener domain.EventListener,
	sink domain.Sink,
	registry *pii.Registry,
	settings *memory.SettingsRepository,
	m *metrics.BridgeMetrics,
	logger *slog.Logger,
) (*EventBridge, error) {
	if listener == nil || sink == nil || registry == nil || settings == nil {
		return nil, fmt.Errorf("%w: listener, sink, registry and settings are required", domain.ErrInvalidArgument)
	}
	return &EventBridge{
		listener: listener,
		sink:     sink,
		settings: settings,
		registry: registry,
		metrics:  m,
		logger:   logger.With("component", "event_bridge"),
	}, nil
}

// EnableEvents logs events of source at or above level, including their payload.
func (b *EventBridge) EnableEvents(source domain.EventSource, level domain.EventLevel) error {
	if source == nil {
		return fmt.Errorf("%w: source is nil", domain.ErrInvalidArgument)
	}
	return b.EnableEventsWithSettings(source, domain.DefaultSettings(level))
}

// EnableEventsWithSettings logs events of source as described by settings.
// Calling it again for a source with the same name replaces its settings and
// payload classifications.
func (b *EventBridge) EnableEventsWithSettings(source domain.EventSource, settings *domain.SourceSettings) error {
	if source == nil {
		return fmt.Errorf("%w: source is nil", domain.ErrInvalidArgument)
	}
	if settings == nil {
		return fmt.Errorf("%w: settings are nil", domain.ErrInvalidArgument)
	}

	b.lifecycle.RLock()
	defer b.lifecycle.RUnlock()
	if b.disposed {
		return ErrBridgeDisposed
	}

	sensitive := b.registry.Register(source.Identity(), source.PayloadClassifications())
	b.settings.Set(source.Name(), settings)

	if err := b.listener.EnableEvents(source, settings.MinLevel, b.handleEvent); err != nil {
		b.logger.Error("failed to enable events", "source", source.Name(), "error", err)
		return fmt.Errorf("enable events for %s: %w", source.Name(), err)
	}

	if b.metrics != nil {
		b.metrics.RegistrationsTotal.Inc()
		b.metrics.RegisteredSources.Set(float64(b.settings.Len()))
	}
	b.logger.Info("enabled event source",
		"source", source.Name(),
		"source_id", source.Identity(),
		"level", settings.MinLevel,
		"include_payload", settings.IncludePayload,
		"sensitive_fields", sensitive,
	)
	return nil
}

// Dispose unsubscribes from all sources and releases the registration tables.
// A callback already running may still reach the sink after Dispose returns.
func (b *EventBridge) Dispose() error {
	b.disposeOnce.Do(func() {
		b.lifecycle.Lock()
		defer b.lifecycle.Unlock()
		b.disposed = true
		if err := b.listener.Close(); err != nil {
			b.disposeErr = fmt.Errorf("close listener: %w", err)
		}
		b.settings.Reset()
		b.registry.Reset()
		if b.metrics != nil {
			b.metrics.RegisteredSources.Set(0)
		}
		b.logger.Info("event bridge disposed")
	})
	return b.disposeErr
}

func (b *EventBridge) handleEvent(event domain.RawEvent) {
	settings, ok := b.settings.Get(event.SourceName)
	if !ok {
		b.observe(metrics.OutcomeUnregistered)
		return
	}

	pass, err := applyFilter(settings.Filter, event)
	if err == nil && !pass {
		b.observe(metrics.OutcomeFiltered)
		return
	}

	level := severity.ToSinkLevel(event.Level)

	var msg string
	if err == nil {
		var redacted int
		msg, redacted, err = formatEvent(event, settings, b.registry.Snapshot(event.SourceID))
		if redacted > 0 && b.metrics != nil {
			b.metrics.RedactedFieldsTotal.Add(float64(redacted))
		}
	}

	if err != nil {
		b.sink.Log(domain.SinkInfo, err, formatFailureMessage+event.EventName)
		b.observe(metrics.OutcomeFormatError)
		msg = ""
	} else {
		b.observe(metrics.OutcomeForwarded)
	}

	b.sink.Log(level, nil, msg)
}

func applyFilter(filter domain.EventFilter, event domain.RawEvent) (pass bool, err error) {
	if filter == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			pass = false
			// Only the type of the panic value is kept; it may hold payload values.
			err = &domain.FormatError{EventName: event.EventName, Err: fmt.Errorf("filter panic: %T", r)}
		}
	}()
	return filter(event), nil
}

func (b *EventBridge) observe(outcome string) {
	if b.metrics != nil {
		b.metrics.EventsTotal.WithLabelValues(outcome).Inc()
	}
}
