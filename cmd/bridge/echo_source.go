package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/eventbridge/internal/adapter/eventsource"
	"github.com/V4T54L/eventbridge/internal/domain"
)

const (
	echoSourceName = "EventBridge-Sample-Echo"

	echoEventID     = 1
	echoMoreEventID = 2
)

// echoSource is the sample producer used to demonstrate the bridge.
type echoSource struct {
	*eventsource.Source
}

func newEchoSource() (*echoSource, error) {
	src, err := eventsource.New(echoSourceName,
		eventsource.EventDescriptor{
			ID:      echoEventID,
			Name:    "Echo",
			Level:   domain.LevelWarning,
			Message: "Echo: {0}",
			Fields:  []eventsource.FieldDescriptor{{Name: "message"}},
		},
		eventsource.EventDescriptor{
			ID:      echoMoreEventID,
			Name:    "EchoMore",
			Level:   domain.LevelWarning,
			Message: "Echo: {0}",
			Fields: []eventsource.FieldDescriptor{
				{Name: "message"},
				{Name: "date"},
				{Name: "count"},
				{Name: "token", Sensitive: true},
			},
		},
	)
	if err != nil {
		return nil, err
	}
	return &echoSource{Source: src}, nil
}

func (s *echoSource) Echo(message string) error {
	return s.Write(echoEventID, message)
}

func (s *echoSource) EchoMore(message string, date time.Time, count int, token string) error {
	return s.Write(echoMoreEventID, message, date, count, token)
}

// emit writes the c-th sample call, every fourth one as EchoMore. Nothing is
// built when no listener takes Warning events.
func (s *echoSource) emit(c int) (bool, error) {
	if !s.IsEnabled(domain.LevelWarning) {
		return false, nil
	}
	message := fmt.Sprintf("Test call #%d", c)
	if c%4 == 0 {
		return true, s.EchoMore(message, time.Now().Truncate(24*time.Hour), c, uuid.NewString())
	}
	return true, s.Echo(message)
}
