package eventsource

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/V4T54L/eventbridge/internal/domain"
)

// Listener implements domain.EventListener for sources created by this package.
type Listener struct {
	logger *slog.Logger

	mu      sync.RWMutex
	sources map[*Source]struct{}
	handler domain.EventHandler
	closed  bool
}

// NewListener creates a listener with no enabled sources.
func NewListener(logger *slog.Logger) *Listener {
	return &Listener{
		logger:  logger.With("component", "event_listener"),
		sources: make(map[*Source]struct{}),
	}
}

// EnableEvents attaches the listener to source at level. source must be a
// *Source or a type embedding one.
func (l *Listener) EnableEvents(source domain.EventSource, level domain.EventLevel, handler domain.EventHandler) error {
	owner, ok := source.(interface{ eventSource() *Source })
	if !ok {
		return fmt.Errorf("%w: %T", domain.ErrUnsupportedSource, source)
	}
	src := owner.eventSource()
	if handler == nil {
		return fmt.Errorf("%w: handler is nil", domain.ErrInvalidArgument)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return domain.ErrListenerClosed
	}
	l.sources[src] = struct{}{}
	l.handler = handler
	src.attach(l, level)
	l.mu.Unlock()

	l.logger.Debug("enabled events", "source", src.Name(), "level", level)
	return nil
}

// Close detaches from all sources. It is safe to call more than once.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	for src := range l.sources {
		src.detach(l)
	}
	n := len(l.sources)
	l.sources = nil
	l.handler = nil
	l.mu.Unlock()

	l.logger.Debug("listener closed", "sources", n)
	return nil
}

func (l *Listener) dispatch(event domain.RawEvent) {
	l.mu.RLock()
	handler := l.handler
	l.mu.RUnlock()
	if handler != nil {
		handler(event)
	}
}
