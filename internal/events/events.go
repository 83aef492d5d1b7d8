// Package events re-exports the platform event bus and defines the
// pipeline's domain events. Modules that only observe the pipeline (the
// audit ledger) subscribe here instead of being wired into the hot path.
package events

import (
	"time"

	platformevents "leadpipeline_backend/platform/events"
	"leadpipeline_backend/platform/logger"
)

// Bus is a type alias to the platform event bus interface.
type Bus = platformevents.Bus

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = platformevents.InMemoryBus

// Handler is a type alias to the platform event handler.
type Handler = platformevents.Handler

// HandlerFunc is a type alias to the platform handler adapter.
type HandlerFunc = platformevents.HandlerFunc

// Event is a type alias to the platform event interface.
type Event = platformevents.Event

// BaseEvent is a type alias to the platform base event.
type BaseEvent = platformevents.BaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// Event names.
const (
	LeadReceivedName = "lead.received"
	LeadEnrichedName = "lead.enriched"
)

// LeadReceived is published by the ingestion gateway after a raw event
// envelope has been durably stored.
type LeadReceived struct {
	BaseEvent
	LeadID     string
	RawKey     string
	ReceivedAt time.Time
}

// EventName implements Event.
func (LeadReceived) EventName() string { return LeadReceivedName }

// LeadEnriched is published by the enrichment processor after an
// enriched record has been durably stored.
type LeadEnriched struct {
	BaseEvent
	LeadID      string
	EnrichedKey string
	EnrichedAt  time.Time
}

// EventName implements Event.
func (LeadEnriched) EventName() string { return LeadEnrichedName }
