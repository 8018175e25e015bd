// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadqual_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the pipeline.
type LeadCreated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Name    string    `json:"name"`
	Program string    `json:"program,omitempty"`
	Source  string    `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// DecisionRecorded is published after a qualification decision is persisted.
type DecisionRecorded struct {
	BaseEvent
	DecisionID uuid.UUID `json:"decisionId"`
	LeadID     uuid.UUID `json:"leadId"`
	DecidedBy  uuid.UUID `json:"decidedBy"`
	Status     string    `json:"status"`
	Confidence float64   `json:"confidence"`
	Override   bool      `json:"override"`
	HardFail   bool      `json:"hardFail"`
}

func (e DecisionRecorded) EventName() string { return "leads.decision.recorded" }

// LeadsImported is published when a CSV batch import completes.
type LeadsImported struct {
	BaseEvent
	ActorID  uuid.UUID `json:"actorId"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
}

func (e LeadsImported) EventName() string { return "leads.import.completed" }

// BatchRequalifyRequested is published when a batch requalification run
// is enqueued for background processing.
type BatchRequalifyRequested struct {
	BaseEvent
	ActorID  uuid.UUID `json:"actorId"`
	Statuses []string  `json:"statuses"`
}

func (e BatchRequalifyRequested) EventName() string { return "leads.requalify.requested" }
