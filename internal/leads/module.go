// Package leads provides the lead qualification bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"

	"leadqual_backend/internal/events"
	apphttp "leadqual_backend/internal/http"
	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/handler"
	"leadqual_backend/internal/leads/qualify"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/service"
	"leadqual_backend/internal/ruleset"
	"leadqual_backend/platform/logger"
	"leadqual_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
// sim may be nil when no embedding backend is configured; the engine then
// scores intent neutrally.
func NewModule(pool *pgxpool.Pool, rules *ruleset.Ruleset, sim qualify.Similarity, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	engine := qualify.New(rules, sim, log)
	svc := service.New(repo, engine, eventBus, log)
	h := handler.New(svc, val)

	// Log recorded decisions as they flow through the bus, so downstream
	// subscribers added later have a working example to copy.
	eventBus.Subscribe(events.DecisionRecorded{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.DecisionRecorded)
		if !ok {
			return nil
		}
		log.Info("decision event observed", "leadId", e.LeadID, "status", e.Status, "override", e.Override)
		return nil
	}))

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead qualification service for external use
// (CLI import, background workers).
func (m *Module) Service() *service.Service {
	return m.service
}

// SetRequalifier wires the background task queue into the HTTP handler.
func (m *Module) SetRequalifier(r handler.Requalifier) {
	m.handler.SetRequalifier(r)
}

// AuditBatchEnqueued records that a batch requalification run was enqueued.
// The enqueue itself already succeeded, so a failed audit write is returned
// for the caller to log rather than aborting anything.
func (m *Module) AuditBatchEnqueued(ctx context.Context, actorID uuid.UUID, statuses []string) error {
	_, err := m.repo.AppendAudit(ctx, repository.AppendAuditParams{
		ActorID: actorID,
		Action:  domain.ActionBatchRequeued,
		Payload: map[string]any{"statuses": statuses},
	})
	return err
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.V1.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
	m.handler.RegisterReportingRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
