// Package service orchestrates lead intake, qualification, decision
// recording, and reporting on top of the repository and the scoring engine.
package service

import (
	"context"
	"errors"
	"time"

	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/qualify"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/transport"
	"leadqual_backend/platform/apperr"
	"leadqual_backend/platform/logger"
	"leadqual_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo   repository.LeadsRepository
	engine *qualify.Engine
	bus    events.Bus
	log    *logger.Logger
}

func New(repo repository.LeadsRepository, engine *qualify.Engine, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, engine: engine, bus: bus, log: log}
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	params := repository.CreateLeadParams{
		Name:            req.Name,
		Email:           optional(req.Email),
		Phone:           optional(phone.NormalizeE164(req.Phone)),
		Program:         optional(req.Program),
		Role:            optional(req.Role),
		ExperienceYears: req.ExperienceYears,
		BudgetBand:      optional(req.BudgetBand),
		Region:          optional(req.Region),
		IntentText:      optional(req.IntentText),
		Source:          optional(req.Source),
	}

	lead, err := s.repo.CreateLead(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if _, err := s.repo.AppendAudit(ctx, repository.AppendAuditParams{
		ActorID: actorID,
		Action:  domain.ActionLeadCreated,
		Payload: map[string]any{"lead_id": lead.ID.String(), "name": lead.Name},
	}); err != nil {
		s.log.Error("failed to append lead_created audit", "error", err, "leadId", lead.ID)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Program:   lead.ProgramValue(),
		Source:    lead.SourceValue(),
	})

	return toLeadResponse(lead), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

func (s *Service) List(ctx context.Context, statusFilter string, limit int) ([]transport.LeadResponse, error) {
	var status *domain.Status
	if statusFilter != "" {
		parsed, err := domain.ParseStatus(statusFilter)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		status = &parsed
	}

	leads, err := s.repo.ListLeads(ctx, status, limit)
	if err != nil {
		return nil, err
	}

	out := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, toLeadResponse(lead))
	}
	return out, nil
}

// Qualify runs the engine against a lead and returns the verdict without
// persisting anything. Used for previews and dry runs.
func (s *Service) Qualify(ctx context.Context, leadID uuid.UUID) (transport.QualificationResponse, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.QualificationResponse{}, apperr.NotFound("lead not found")
		}
		return transport.QualificationResponse{}, err
	}

	result := s.engine.Qualify(ctx, lead)
	return toQualificationResponse(leadID, result), nil
}

// Decide runs the engine, applies an optional human override, and records
// the decision atomically. The lead's status, the decision row, and the
// audit entry commit together or not at all.
func (s *Service) Decide(ctx context.Context, actorID uuid.UUID, leadID uuid.UUID, req transport.DecisionRequest) (transport.DecisionResponse, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.DecisionResponse{}, apperr.NotFound("lead not found")
		}
		return transport.DecisionResponse{}, err
	}

	result := s.engine.Qualify(ctx, lead)

	finalStatus := result.Status
	override := false
	if req.Status != "" {
		requested, err := domain.ParseStatus(req.Status)
		if err != nil || !requested.IsDecision() {
			return transport.DecisionResponse{}, apperr.Validation("status must be one of pursue, review, drop")
		}
		override = requested != result.Status
		finalStatus = requested
	}

	decision, err := s.repo.RecordDecision(ctx, repository.RecordDecisionParams{
		LeadID:     leadID,
		DecidedBy:  actorID,
		Status:     finalStatus,
		Rationale:  result.Rationale,
		Confidence: result.Confidence,
		Factors:    result.Factors,
		Override:   override,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.DecisionResponse{}, apperr.NotFound("lead not found")
		}
		return transport.DecisionResponse{}, err
	}

	s.log.DecisionRecorded(leadID.String(), decision.ID.String(), string(decision.Status), decision.Confidence, decision.Override)

	s.bus.Publish(ctx, events.DecisionRecorded{
		BaseEvent:  events.NewBaseEvent(),
		DecisionID: decision.ID,
		LeadID:     leadID,
		DecidedBy:  actorID,
		Status:     string(decision.Status),
		Confidence: decision.Confidence,
		Override:   decision.Override,
		HardFail:   result.HardFail,
	})

	return toDecisionResponse(decision), nil
}

func (s *Service) ListDecisions(ctx context.Context, leadID uuid.UUID) ([]transport.DecisionResponse, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}

	decisions, err := s.repo.ListDecisions(ctx, leadID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.DecisionResponse, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, toDecisionResponse(d))
	}
	return out, nil
}

func (s *Service) ListAudits(ctx context.Context, action string, limit int) ([]transport.AuditResponse, error) {
	audits, err := s.repo.ListAudits(ctx, action, limit)
	if err != nil {
		return nil, err
	}

	out := make([]transport.AuditResponse, 0, len(audits))
	for _, a := range audits {
		out = append(out, transport.AuditResponse{
			ID:        a.ID,
			ActorID:   a.ActorID,
			Action:    a.Action,
			Payload:   a.Payload,
			CreatedAt: a.CreatedAt,
		})
	}
	return out, nil
}

// KPI aggregates decision metrics over the trailing window.
func (s *Service) KPI(ctx context.Context, windowDays int) (transport.KPIResponse, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	total, err := s.repo.CountLeads(ctx)
	if err != nil {
		return transport.KPIResponse{}, err
	}

	stats, err := s.repo.GetDecisionStats(ctx, since)
	if err != nil {
		return transport.KPIResponse{}, err
	}

	return transport.KPIResponse{
		TotalLeads:    total,
		Decisions:     stats.ByStatus,
		AvgConfidence: stats.AvgConfidence,
		OverrideRate:  stats.OverrideRate,
		WindowDays:    windowDays,
	}, nil
}

// LeadIDsByStatus returns the IDs of leads in the given statuses, for batch
// requalification runs.
func (s *Service) LeadIDsByStatus(ctx context.Context, statuses []domain.Status) ([]uuid.UUID, error) {
	return s.repo.ListLeadIDsByStatus(ctx, statuses)
}

// Requalify re-runs the engine for a lead and records the verdict as a
// non-override decision. Used by the background requalification worker.
func (s *Service) Requalify(ctx context.Context, actorID uuid.UUID, leadID uuid.UUID) (transport.DecisionResponse, error) {
	return s.Decide(ctx, actorID, leadID, transport.DecisionRequest{Notes: "batch requalification"})
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func toLeadResponse(lead domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:              lead.ID,
		Name:            lead.Name,
		Email:           lead.EmailValue(),
		Phone:           lead.PhoneValue(),
		Program:         lead.ProgramValue(),
		Role:            lead.RoleValue(),
		ExperienceYears: lead.ExperienceYears,
		BudgetBand:      lead.BudgetBandValue(),
		Region:          lead.RegionValue(),
		IntentText:      lead.IntentTextValue(),
		Source:          lead.SourceValue(),
		Status:          string(lead.Status),
		CreatedAt:       lead.CreatedAt,
	}
}

func toQualificationResponse(leadID uuid.UUID, result qualify.Result) transport.QualificationResponse {
	return transport.QualificationResponse{
		LeadID:     leadID,
		Status:     string(result.Status),
		Confidence: result.Confidence,
		Rationale:  result.Rationale,
		Factors:    result.Factors,
		HardFail:   result.HardFail,
	}
}

func toDecisionResponse(d domain.Decision) transport.DecisionResponse {
	return transport.DecisionResponse{
		ID:         d.ID,
		LeadID:     d.LeadID,
		DecidedBy:  d.DecidedBy,
		DecidedAt:  d.DecidedAt,
		Status:     string(d.Status),
		Rationale:  d.Rationale,
		Confidence: d.Confidence,
		Factors:    d.Factors,
		Override:   d.Override,
		Notes:      d.Notes,
	}
}
