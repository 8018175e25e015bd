package domain

import (
	"time"

	"github.com/google/uuid"
)

// FactorBreakdown holds the five factor scores and the weighted total that
// produced a decision. Each factor is in [0,100].
type FactorBreakdown struct {
	IntentScore     float64 `json:"intent_score"`
	FitScore        float64 `json:"fit_score"`
	AbilityToPay    float64 `json:"ability_to_pay"`
	CompletionScore float64 `json:"completion_score"`
	PriorityBonus   float64 `json:"priority_bonus"`
	TotalScore      float64 `json:"total_score"`
}

// Decision is one immutable qualification outcome for a lead. Decisions are
// append-only: they are never mutated or deleted, and a lead accumulates one
// per qualification run or human ruling.
type Decision struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	DecidedBy  uuid.UUID
	DecidedAt  time.Time
	Status     Status
	Rationale  []string
	Confidence float64
	Factors    FactorBreakdown
	Override   bool
	Notes      string
}
