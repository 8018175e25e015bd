package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"leadqual_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RecordDecisionParams struct {
	LeadID     uuid.UUID
	DecidedBy  uuid.UUID
	Status     domain.Status
	Rationale  []string
	Confidence float64
	Factors    domain.FactorBreakdown
	Override   bool
	Notes      string
}

// RecordDecision inserts an immutable decision, updates the owning lead's
// status to match, and appends the audit entry, all in a single transaction.
// The lead row is locked for the duration so concurrent recordings against
// the same lead serialize and the lead's status always equals its latest
// decision.
func (r *Repository) RecordDecision(ctx context.Context, params RecordDecisionParams) (domain.Decision, error) {
	factorsJSON, err := json.Marshal(params.Factors)
	if err != nil {
		return domain.Decision{}, err
	}
	rationaleJSON, err := json.Marshal(params.Rationale)
	if err != nil {
		return domain.Decision{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Decision{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var leadID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM leads WHERE id = $1 FOR UPDATE`, params.LeadID).Scan(&leadID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Decision{}, ErrNotFound
	}
	if err != nil {
		return domain.Decision{}, err
	}

	decision := domain.Decision{
		LeadID:     params.LeadID,
		DecidedBy:  params.DecidedBy,
		Status:     params.Status,
		Rationale:  params.Rationale,
		Confidence: params.Confidence,
		Factors:    params.Factors,
		Override:   params.Override,
		Notes:      params.Notes,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO decisions (lead_id, decided_by, status, rationale, confidence, factors, override_flag, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, decided_at`,
		params.LeadID, params.DecidedBy, string(params.Status), rationaleJSON,
		params.Confidence, factorsJSON, params.Override, params.Notes,
	).Scan(&decision.ID, &decision.DecidedAt)
	if err != nil {
		return domain.Decision{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE leads SET status = $1 WHERE id = $2`,
		string(params.Status), params.LeadID); err != nil {
		return domain.Decision{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"lead_id":     params.LeadID,
		"decision_id": decision.ID,
		"status":      string(params.Status),
		"override":    params.Override,
	})
	if err != nil {
		return domain.Decision{}, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO audits (actor_id, action, payload)
		VALUES ($1, $2, $3)`,
		params.DecidedBy, domain.ActionDecisionMade, payload,
	); err != nil {
		return domain.Decision{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Decision{}, err
	}
	return decision, nil
}

// ListDecisions returns a lead's decisions, newest first.
func (r *Repository) ListDecisions(ctx context.Context, leadID uuid.UUID) ([]domain.Decision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, decided_by, decided_at, status, rationale, confidence, factors, override_flag, notes
		FROM decisions
		WHERE lead_id = $1
		ORDER BY decided_at DESC, id DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decisions := make([]domain.Decision, 0)
	for rows.Next() {
		var d domain.Decision
		var status string
		var rationaleJSON, factorsJSON []byte
		if err := rows.Scan(&d.ID, &d.LeadID, &d.DecidedBy, &d.DecidedAt, &status,
			&rationaleJSON, &d.Confidence, &factorsJSON, &d.Override, &d.Notes); err != nil {
			return nil, err
		}
		d.Status = domain.Status(status)
		if err := json.Unmarshal(rationaleJSON, &d.Rationale); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(factorsJSON, &d.Factors); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// DecisionStats aggregates decision outcomes for the KPI dashboard.
type DecisionStats struct {
	ByStatus      map[string]int64
	AvgConfidence float64
	OverrideRate  float64
}

func (r *Repository) GetDecisionStats(ctx context.Context, since time.Time) (DecisionStats, error) {
	stats := DecisionStats{ByStatus: make(map[string]int64)}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM decisions
		WHERE decided_at >= $1
		GROUP BY status`, since)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
	}
	if rows.Err() != nil {
		return stats, rows.Err()
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(confidence), 0),
			COALESCE(AVG(CASE WHEN override_flag THEN 1.0 ELSE 0.0 END), 0)
		FROM decisions
		WHERE decided_at >= $1`, since).Scan(&stats.AvgConfidence, &stats.OverrideRate)
	return stats, err
}
