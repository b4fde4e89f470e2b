// Package eventsource is an in-process tracing facility: sources declare their
// events up front and write them whether or not a listener is attached.
package eventsource

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/V4T54L/eventbridge/internal/domain"
)

// identityNamespace is the UUID namespace source identities are derived in.
var identityNamespace = uuid.MustParse("482c2db2-c390-47c8-87f8-1a15bfc130fb")

// NewIdentity derives the stable identity of a source from its name.
func NewIdentity(name string) domain.SourceIdentity {
	return uuid.NewSHA1(identityNamespace, []byte(domain.SourceKey(name)))
}

// FieldDescriptor declares one payload field of an event.
type FieldDescriptor struct {
	Name      string
	Sensitive bool
}

// EventDescriptor declares an event a source may write.
type EventDescriptor struct {
	ID      int
	Name    string
	Level   domain.EventLevel
	Message string
	Version uint8
	Fields  []FieldDescriptor
}

type attachment struct {
	listener *Listener
	level    domain.EventLevel
}

// Source writes declared events to every listener that enabled it.
type Source struct {
	name   string
	id     domain.SourceIdentity
	events map[int]EventDescriptor
	order  []int

	mu          sync.Mutex
	attachments atomic.Pointer[[]attachment]
}

// New creates a source. Event ids must be unique.
func New(name string, events ...EventDescriptor) (*Source, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: source name is empty", domain.ErrInvalidArgument)
	}
	s := &Source{
		name:   name,
		id:     NewIdentity(name),
		events: make(map[int]EventDescriptor, len(events)),
	}
	for _, e := range events {
		if _, dup := s.events[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate event id %d in source %s", domain.ErrInvalidArgument, e.ID, name)
		}
		s.events[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	s.attachments.Store(&[]attachment{})
	return s, nil
}

func (s *Source) eventSource() *Source            { return s }
func (s *Source) Name() string                    { return s.name }
func (s *Source) Identity() domain.SourceIdentity { return s.id }

// PayloadClassifications lists the declared classification of every payload
// field of every event, in declaration order.
func (s *Source) PayloadClassifications() []domain.ClassificationEntry {
	var entries []domain.ClassificationEntry
	for _, id := range s.order {
		for i, f := range s.events[id].Fields {
			c := domain.Normal
			if f.Sensitive {
				c = domain.Sensitive
			}
			entries = append(entries, domain.ClassificationEntry{EventID: id, Index: i, Name: f.Name, Classification: c})
		}
	}
	return entries
}

// IsEnabled reports whether any listener receives events at level.
func (s *Source) IsEnabled(level domain.EventLevel) bool {
	for _, a := range *s.attachments.Load() {
		if a.level.Enables(level) {
			return true
		}
	}
	return false
}

// Write emits event id with the given payload values on the calling goroutine.
// Writing without an attached listener is a no-op.
func (s *Source) Write(id int, values ...any) error {
	desc, ok := s.events[id]
	if !ok {
		return fmt.Errorf("%w: %d in source %s", domain.ErrUnknownEvent, id, s.name)
	}
	if len(values) != len(desc.Fields) {
		return fmt.Errorf("%w: event %s expects %d values, got %d", domain.ErrPayloadMismatch, desc.Name, len(desc.Fields), len(values))
	}

	attached := *s.attachments.Load()
	if len(attached) == 0 {
		return nil
	}

	payload := make([]domain.PayloadField, len(values))
	for i, v := range values {
		payload[i] = domain.PayloadField{Name: desc.Fields[i].Name, Value: v}
	}
	event := domain.RawEvent{
		SourceID:   s.id,
		SourceName: s.name,
		EventID:    desc.ID,
		EventName:  desc.Name,
		Message:    desc.Message,
		Level:      desc.Level,
		Payload:    payload,
		Version:    desc.Version,
	}

	for _, a := range attached {
		if a.level.Enables(desc.Level) {
			a.listener.dispatch(event)
		}
	}
	return nil
}

// attach adds or updates the level of l. The attachment list is copied on
// write so Write never takes the lock.
func (s *Source) attach(l *Listener, level domain.EventLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := *s.attachments.Load()
	next := make([]attachment, 0, len(current)+1)
	for _, a := range current {
		if a.listener != l {
			next = append(next, a)
		}
	}
	next = append(next, attachment{listener: l, level: level})
	s.attachments.Store(&next)
}

func (s *Source) detach(l *Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := *s.attachments.Load()
	next := make([]attachment, 0, len(current))
	for _, a := range current {
		if a.listener != l {
			next = append(next, a)
		}
	}
	s.attachments.Store(&next)
}
