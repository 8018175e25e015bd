// Package domain defines the core lead qualification entities and their
// invariants. It has no dependencies on transport or persistence.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the current qualification state of a lead. A lead's status always
// equals the status of its most recent decision, or StatusNew when no
// decision exists yet.
type Status string

const (
	StatusNew    Status = "new"
	StatusPursue Status = "pursue"
	StatusReview Status = "review"
	StatusDrop   Status = "drop"
)

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusNew, StatusPursue, StatusReview, StatusDrop:
		return Status(raw), nil
	}
	return "", fmt.Errorf("invalid lead status %q", raw)
}

// DecisionStatuses lists the statuses a decision may assign. StatusNew is the
// intake state only and is never the outcome of a decision.
func DecisionStatuses() []Status {
	return []Status{StatusPursue, StatusReview, StatusDrop}
}

// IsDecision reports whether s is a valid decision outcome.
func (s Status) IsDecision() bool {
	return s == StatusPursue || s == StatusReview || s == StatusDrop
}

// Lead is a candidate record submitted for qualification. Optional fields are
// pointers; absence and empty string are treated identically by the engine.
type Lead struct {
	ID              uuid.UUID
	Name            string
	Email           *string
	Phone           *string
	Program         *string
	Role            *string
	ExperienceYears int
	BudgetBand      *string
	Region          *string
	IntentText      *string
	Source          *string
	Status          Status
	CreatedAt       time.Time
}

// HasContact reports whether at least one contact field is present.
func (l Lead) HasContact() bool {
	return deref(l.Email) != "" || deref(l.Phone) != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Field accessors returning "" for absent optionals, used by the scoring
// engine so nil handling stays in one place.

func (l Lead) EmailValue() string      { return deref(l.Email) }
func (l Lead) PhoneValue() string      { return deref(l.Phone) }
func (l Lead) ProgramValue() string    { return deref(l.Program) }
func (l Lead) RoleValue() string       { return deref(l.Role) }
func (l Lead) BudgetBandValue() string { return deref(l.BudgetBand) }
func (l Lead) RegionValue() string     { return deref(l.Region) }
func (l Lead) IntentTextValue() string { return deref(l.IntentText) }
func (l Lead) SourceValue() string     { return deref(l.Source) }
