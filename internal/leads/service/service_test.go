package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/qualify"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/transport"
	"leadqual_backend/internal/ruleset"
	"leadqual_backend/platform/apperr"
	platformevents "leadqual_backend/platform/events"
	"leadqual_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu        sync.Mutex
	leads     map[uuid.UUID]domain.Lead
	decisions []domain.Decision
	audits    []domain.Audit
	recordErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]domain.Lead)}
}

func (f *fakeRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead := domain.Lead{
		ID:              uuid.New(),
		Name:            params.Name,
		Email:           params.Email,
		Phone:           params.Phone,
		Program:         params.Program,
		Role:            params.Role,
		ExperienceYears: params.ExperienceYears,
		BudgetBand:      params.BudgetBand,
		Region:          params.Region,
		IntentText:      params.IntentText,
		Source:          params.Source,
		Status:          domain.StatusNew,
		CreatedAt:       time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) ListLeads(_ context.Context, status *domain.Status, _ int) ([]domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Lead
	for _, lead := range f.leads {
		if status == nil || lead.Status == *status {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListLeadIDsByStatus(_ context.Context, statuses []domain.Status) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for id, lead := range f.leads {
		for _, s := range statuses {
			if lead.Status == s {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) CountLeads(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.leads)), nil
}

func (f *fakeRepo) RecordDecision(_ context.Context, params repository.RecordDecisionParams) (domain.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return domain.Decision{}, f.recordErr
	}
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return domain.Decision{}, repository.ErrNotFound
	}
	decision := domain.Decision{
		ID:         uuid.New(),
		LeadID:     params.LeadID,
		DecidedBy:  params.DecidedBy,
		DecidedAt:  time.Now(),
		Status:     params.Status,
		Rationale:  params.Rationale,
		Confidence: params.Confidence,
		Factors:    params.Factors,
		Override:   params.Override,
		Notes:      params.Notes,
	}
	f.decisions = append(f.decisions, decision)
	lead.Status = params.Status
	f.leads[params.LeadID] = lead
	f.audits = append(f.audits, domain.Audit{
		ID:        uuid.New(),
		ActorID:   params.DecidedBy,
		Action:    domain.ActionDecisionMade,
		Payload:   map[string]any{"lead_id": params.LeadID.String()},
		CreatedAt: time.Now(),
	})
	return decision, nil
}

func (f *fakeRepo) ListDecisions(_ context.Context, leadID uuid.UUID) ([]domain.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Decision
	for _, d := range f.decisions {
		if d.LeadID == leadID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) AppendAudit(_ context.Context, params repository.AppendAuditParams) (domain.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	audit := domain.Audit{
		ID:        uuid.New(),
		ActorID:   params.ActorID,
		Action:    params.Action,
		Payload:   params.Payload,
		CreatedAt: time.Now(),
	}
	f.audits = append(f.audits, audit)
	return audit, nil
}

func (f *fakeRepo) ListAudits(_ context.Context, action string, _ int) ([]domain.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Audit
	for _, a := range f.audits {
		if action == "" || a.Action == action {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetDecisionStats(_ context.Context, since time.Time) (repository.DecisionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := repository.DecisionStats{ByStatus: make(map[string]int64)}
	var confSum float64
	var overrides int64
	var n int64
	for _, d := range f.decisions {
		if d.DecidedAt.Before(since) {
			continue
		}
		stats.ByStatus[string(d.Status)]++
		confSum += d.Confidence
		if d.Override {
			overrides++
		}
		n++
	}
	if n > 0 {
		stats.AvgConfidence = confSum / float64(n)
		stats.OverrideRate = float64(overrides) / float64(n)
	}
	return stats, nil
}

var _ repository.LeadsRepository = (*fakeRepo)(nil)

type recordingBus struct {
	mu     sync.Mutex
	events []platformevents.Event
}

func (b *recordingBus) Publish(_ context.Context, event platformevents.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event platformevents.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, platformevents.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

func testRules() *ruleset.Ruleset {
	return &ruleset.Ruleset{
		Qualification: ruleset.Qualification{
			FactorWeights: ruleset.FactorWeights{
				IntentScore:     0.30,
				FitScore:        0.25,
				AbilityToPay:    0.20,
				CompletionScore: 0.15,
				PriorityBonus:   0.10,
			},
			PursueThreshold: 70,
			ReviewThreshold: 50,
			HardFails: ruleset.HardFails{
				MissingContact:     true,
				IrrelevantProgram:  true,
				BudgetBelowMinimum: 1000,
				DisallowedRegions:  []string{"antarctica"},
			},
			PriorityFlags: ruleset.PriorityFlags{
				AlumniReferral:     15,
				StrongProgramMatch: 10,
				PriorEngagement:    10,
			},
		},
		Programs: []ruleset.Program{
			{Name: "Data Engineering Bootcamp", TargetRoles: []string{"engineer", "analyst"}, MinExperience: 2},
		},
		IntentSeeds: ruleset.IntentSeeds{
			Positive: []string{"ready to enroll"},
			Negative: []string{"just curious"},
		},
	}
}

func newService(repo repository.LeadsRepository, bus *recordingBus) *Service {
	log := logger.New("test")
	engine := qualify.New(testRules(), nil, log)
	return New(repo, engine, bus, log)
}

func seedLead(t *testing.T, repo *fakeRepo) domain.Lead {
	t.Helper()
	lead, err := repo.CreateLead(context.Background(), repository.CreateLeadParams{
		Name:            "Jordan Vega",
		Email:           strptr("jordan@example.com"),
		Program:         strptr("Data Engineering Bootcamp"),
		Role:            strptr("Data Engineer"),
		ExperienceYears: 4,
		BudgetBand:      strptr("12000"),
		Region:          strptr("EU"),
		Source:          strptr("webinar"),
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return lead
}

func strptr(s string) *string { return &s }

func TestCreatePublishesEventAndAudits(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)

	resp, err := svc.Create(context.Background(), uuid.New(), transport.CreateLeadRequest{
		Name:  "Sam Rios",
		Email: "sam@example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Status != string(domain.StatusNew) {
		t.Fatalf("new lead status = %q, want new", resp.Status)
	}

	audits, _ := repo.ListAudits(context.Background(), domain.ActionLeadCreated, 10)
	if len(audits) != 1 {
		t.Fatalf("lead_created audits = %d, want 1", len(audits))
	}

	names := bus.names()
	if len(names) != 1 || names[0] != "leads.lead.created" {
		t.Fatalf("published events = %v, want [leads.lead.created]", names)
	}
}

func TestDecidePersistsEngineVerdictAndSyncsStatus(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	lead := seedLead(t, repo)

	decision, err := svc.Decide(context.Background(), uuid.New(), lead.ID, transport.DecisionRequest{})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Override {
		t.Fatal("engine verdict recorded without override must not be flagged")
	}
	if decision.Status == string(domain.StatusNew) {
		t.Fatal("decision status must never be new")
	}

	got, _ := repo.GetLead(context.Background(), lead.ID)
	if string(got.Status) != decision.Status {
		t.Fatalf("lead status %q does not match decision status %q", got.Status, decision.Status)
	}

	audits, _ := repo.ListAudits(context.Background(), domain.ActionDecisionMade, 10)
	if len(audits) != 1 {
		t.Fatalf("decision_made audits = %d, want 1", len(audits))
	}
}

func TestDecideOverrideFlag(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	lead := seedLead(t, repo)

	preview, err := svc.Qualify(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Qualify: %v", err)
	}

	var requested string
	if preview.Status == string(domain.StatusDrop) {
		requested = string(domain.StatusPursue)
	} else {
		requested = string(domain.StatusDrop)
	}

	decision, err := svc.Decide(context.Background(), uuid.New(), lead.ID, transport.DecisionRequest{
		Status: requested,
		Notes:  "manual review call",
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !decision.Override {
		t.Fatal("diverging human status must set the override flag")
	}
	if decision.Status != requested {
		t.Fatalf("decision status = %q, want %q", decision.Status, requested)
	}
	if decision.Notes != "manual review call" {
		t.Fatalf("decision notes = %q", decision.Notes)
	}
}

func TestDecideMatchingStatusIsNotOverride(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	lead := seedLead(t, repo)

	preview, err := svc.Qualify(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Qualify: %v", err)
	}

	decision, err := svc.Decide(context.Background(), uuid.New(), lead.ID, transport.DecisionRequest{
		Status: preview.Status,
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Override {
		t.Fatal("human status matching the engine must not be flagged as override")
	}
}

func TestDecideInvalidStatusRejected(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	lead := seedLead(t, repo)

	_, err := svc.Decide(context.Background(), uuid.New(), lead.ID, transport.DecisionRequest{Status: "new"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("status new must be rejected as validation error, got %v", err)
	}
}

func TestDecidePersistenceFailureSurfaced(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	lead := seedLead(t, repo)
	repo.recordErr = context.DeadlineExceeded

	_, err := svc.Decide(context.Background(), uuid.New(), lead.ID, transport.DecisionRequest{})
	if err == nil {
		t.Fatal("persistence failure must surface as an error")
	}
	for _, name := range bus.names() {
		if name == "leads.decision.recorded" {
			t.Fatal("no decision event may be published when persistence fails")
		}
	}
}

func TestDecideLeadNotFound(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)

	_, err := svc.Decide(context.Background(), uuid.New(), uuid.New(), transport.DecisionRequest{})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown lead must map to not found, got %v", err)
	}
}

func TestQualifyIsReadOnly(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	lead := seedLead(t, repo)

	if _, err := svc.Qualify(context.Background(), lead.ID); err != nil {
		t.Fatalf("Qualify: %v", err)
	}

	decisions, _ := repo.ListDecisions(context.Background(), lead.ID)
	if len(decisions) != 0 {
		t.Fatalf("qualify preview persisted %d decisions, want 0", len(decisions))
	}
	got, _ := repo.GetLead(context.Background(), lead.ID)
	if got.Status != domain.StatusNew {
		t.Fatalf("qualify preview changed lead status to %q", got.Status)
	}
}

func TestListRejectsInvalidStatusFilter(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)

	_, err := svc.List(context.Background(), "archived", 10)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("invalid status filter must be a validation error, got %v", err)
	}
}

func TestImportCSV(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)

	csvData := strings.Join([]string{
		"email,name,program,experience_years,budget_band",
		"ana@example.com,Ana Petrov,Data Engineering Bootcamp,3,10k",
		"missing@example.com,,Data Engineering Bootcamp,1,5k",
		"bad@example.com,Lee Wong,Data Engineering Bootcamp,not-a-number,5k",
		"ok@example.com,Kim Osei,,0,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), uuid.New(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2", result.Imported)
	}
	if result.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", result.Skipped)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want 2 entries", result.Errors)
	}

	count, _ := repo.CountLeads(context.Background())
	if count != 2 {
		t.Fatalf("lead count = %d, want 2", count)
	}

	audits, _ := repo.ListAudits(context.Background(), domain.ActionCSVImport, 10)
	if len(audits) != 1 {
		t.Fatalf("csv_import audits = %d, want 1", len(audits))
	}
}

func TestImportCSVRequiresNameColumn(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)

	_, err := svc.ImportCSV(context.Background(), uuid.New(), strings.NewReader("email\nx@example.com"))
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("missing name column must be a bad request, got %v", err)
	}
}

func TestKPIWindowDefaults(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	lead := seedLead(t, repo)

	if _, err := svc.Decide(context.Background(), uuid.New(), lead.ID, transport.DecisionRequest{}); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	kpi, err := svc.KPI(context.Background(), 0)
	if err != nil {
		t.Fatalf("KPI: %v", err)
	}
	if kpi.WindowDays != 30 {
		t.Fatalf("window days = %d, want default 30", kpi.WindowDays)
	}
	if kpi.TotalLeads != 1 {
		t.Fatalf("total leads = %d, want 1", kpi.TotalLeads)
	}
	var decisionCount int64
	for _, n := range kpi.Decisions {
		decisionCount += n
	}
	if decisionCount != 1 {
		t.Fatalf("decision count = %d, want 1", decisionCount)
	}
}
