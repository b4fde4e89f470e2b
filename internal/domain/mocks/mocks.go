package mocks

import (
	"sync"

	"github.com/V4T54L/eventbridge/internal/domain"
)

// SinkCall records one call to MockSink.Log.
type SinkCall struct {
	Level   domain.SinkLevel
	Err     error
	Message string
}

// MockSink is a mock implementation of domain.Sink for testing.
type MockSink struct {
	mu    sync.Mutex
	Calls []SinkCall
}

func (m *MockSink) Log(level domain.SinkLevel, err error, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, SinkCall{Level: level, Err: err, Message: message})
}

// Snapshot returns a copy of the recorded calls.
func (m *MockSink) Snapshot() []SinkCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SinkCall(nil), m.Calls...)
}

// MockEventSource is a mock implementation of domain.EventSource for testing.
type MockEventSource struct {
	SourceName      string
	ID              domain.SourceIdentity
	Classifications []domain.ClassificationEntry
}

func (m *MockEventSource) Name() string                    { return m.SourceName }
func (m *MockEventSource) Identity() domain.SourceIdentity { return m.ID }
func (m *MockEventSource) PayloadClassifications() []domain.ClassificationEntry {
	return m.Classifications
}

// Subscription records one EnableEvents call.
type Subscription struct {
	Source domain.EventSource
	Level  domain.EventLevel
}

// MockEventListener is a mock implementation of domain.EventListener for testing.
// Emit invokes the most recently registered handler, the way a tracing facility would.
type MockEventListener struct {
	mu            sync.Mutex
	Subscriptions []Subscription
	Handler       domain.EventHandler
	Closed        int
	EnableErr     error
	CloseErr      error
}

func (m *MockEventListener) EnableEvents(source domain.EventSource, level domain.EventLevel, handler domain.EventHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnableErr != nil {
		return m.EnableErr
	}
	m.Subscriptions = append(m.Subscriptions, Subscription{Source: source, Level: level})
	m.Handler = handler
	return nil
}

func (m *MockEventListener) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	m.Handler = nil
	return m.CloseErr
}

// Emit delivers event to the registered handler, if any.
func (m *MockEventListener) Emit(event domain.RawEvent) {
	m.mu.Lock()
	handler := m.Handler
	m.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}
