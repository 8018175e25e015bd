// Package transport defines the request and response DTOs for the leads API.
package transport

import (
	"time"

	"leadqual_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
	Program         string `json:"program,omitempty" validate:"omitempty,max=200"`
	Role            string `json:"role,omitempty" validate:"omitempty,max=200"`
	ExperienceYears int    `json:"experienceYears,omitempty" validate:"omitempty,min=0,max=80"`
	BudgetBand      string `json:"budgetBand,omitempty" validate:"omitempty,max=100"`
	Region          string `json:"region,omitempty" validate:"omitempty,max=100"`
	IntentText      string `json:"intentText,omitempty" validate:"omitempty,max=10000"`
	Source          string `json:"source,omitempty" validate:"omitempty,max=200"`
}

// DecisionRequest records a decision for a lead. When Status is empty the
// engine's verdict is persisted as-is; when set, it is recorded as a human
// override of the engine.
type DecisionRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=pursue review drop"`
	Notes  string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type BatchRequalifyRequest struct {
	Statuses []string `json:"statuses,omitempty" validate:"omitempty,dive,oneof=new pursue review drop"`
}

// Response DTOs

type LeadResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Program         string    `json:"program,omitempty"`
	Role            string    `json:"role,omitempty"`
	ExperienceYears int       `json:"experienceYears"`
	BudgetBand      string    `json:"budgetBand,omitempty"`
	Region          string    `json:"region,omitempty"`
	IntentText      string    `json:"intentText,omitempty"`
	Source          string    `json:"source,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

type QualificationResponse struct {
	LeadID     uuid.UUID              `json:"leadId"`
	Status     string                 `json:"status"`
	Confidence float64                `json:"confidence"`
	Rationale  []string               `json:"rationale"`
	Factors    domain.FactorBreakdown `json:"factors"`
	HardFail   bool                   `json:"hardFail"`
}

type DecisionResponse struct {
	ID         uuid.UUID              `json:"id"`
	LeadID     uuid.UUID              `json:"leadId"`
	DecidedBy  uuid.UUID              `json:"decidedBy"`
	DecidedAt  time.Time              `json:"decidedAt"`
	Status     string                 `json:"status"`
	Rationale  []string               `json:"rationale"`
	Confidence float64                `json:"confidence"`
	Factors    domain.FactorBreakdown `json:"factors"`
	Override   bool                   `json:"override"`
	Notes      string                 `json:"notes,omitempty"`
}

type ImportResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type AuditResponse struct {
	ID        uuid.UUID      `json:"id"`
	ActorID   uuid.UUID      `json:"actorId"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
}

type KPIResponse struct {
	TotalLeads    int64            `json:"totalLeads"`
	Decisions     map[string]int64 `json:"decisions"`
	AvgConfidence float64          `json:"avgConfidence"`
	OverrideRate  float64          `json:"overrideRate"`
	WindowDays    int              `json:"windowDays"`
}

type BatchRequalifyResponse struct {
	Enqueued int      `json:"enqueued"`
	Statuses []string `json:"statuses"`
}
