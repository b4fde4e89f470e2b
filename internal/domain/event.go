package domain

import (
	"strings"

	"github.com/google/uuid"
)

// SourceIdentity is the stable identifier of an event source. It is part of
// the classification key so that events with the same id and payload index
// from different sources never collide.
type SourceIdentity = uuid.UUID

// PayloadField is one named payload value of an emitted event.
type PayloadField struct {
	Name  string
	Value any
}

// RawEvent represents a single emission of an event source as delivered to a listener.
// It is only valid for the duration of the callback that receives it.
type RawEvent struct {
	SourceID   SourceIdentity
	SourceName string
	EventID    int
	EventName  string
	Message    string // declared message template, may contain {N} placeholders
	Level      EventLevel
	Payload    []PayloadField
	Version    uint8
}

// Classification tags a payload field as safe to log or not.
type Classification int

const (
	Normal Classification = iota
	Sensitive
)

func (c Classification) String() string {
	if c == Sensitive {
		return "sensitive"
	}
	return "normal"
}

// ClassificationEntry is a static payload declaration of a source.
type ClassificationEntry struct {
	EventID        int
	Index          int
	Name           string
	Classification Classification
}

// Classifier resolves the classification of payload index of event eventID
// for one source.
type Classifier func(eventID, index int) Classification

// SourceKey is the case-insensitive lookup key of a source name. It uses
// simple per-rune upper casing, the same mapping source identities are
// derived from, so "Straße" and "STRASSE" stay distinct.
func SourceKey(name string) string {
	return strings.ToUpper(name)
}
