package repository

import (
	"context"
	"time"

	"leadqual_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	ListLeads(ctx context.Context, status *domain.Status, limit int) ([]domain.Lead, error)
	ListLeadIDsByStatus(ctx context.Context, statuses []domain.Status) ([]uuid.UUID, error)
	CountLeads(ctx context.Context) (int64, error)
}

// LeadWriter provides write operations for lead intake.
type LeadWriter interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error)
}

// DecisionRecorder persists qualification decisions atomically with the
// owning lead's status and the audit trail.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, params RecordDecisionParams) (domain.Decision, error)
	ListDecisions(ctx context.Context, leadID uuid.UUID) ([]domain.Decision, error)
}

// AuditLogger appends and reads the immutable audit trail.
type AuditLogger interface {
	AppendAudit(ctx context.Context, params AppendAuditParams) (domain.Audit, error)
	ListAudits(ctx context.Context, action string, limit int) ([]domain.Audit, error)
}

// StatsReader provides access to KPI metrics.
type StatsReader interface {
	GetDecisionStats(ctx context.Context, since time.Time) (DecisionStats, error)
}

// LeadsRepository is the full persistence surface consumed by the service layer.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	DecisionRecorder
	AuditLogger
	StatsReader
}

// Compile-time check that Repository satisfies the full interface.
var _ LeadsRepository = (*Repository)(nil)
