package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnknownEvent      = errors.New("unknown event id")
	ErrPayloadMismatch   = errors.New("payload does not match event declaration")
	ErrUnsupportedSource = errors.New("unsupported event source")
	ErrListenerClosed    = errors.New("listener is closed")
)

// FormatError reports a failure while rendering a single event.
type FormatError struct {
	EventName string
	Err       error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format event %s: %v", e.EventName, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
