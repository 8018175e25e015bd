// Package repository provides pgx-backed persistence for leads, decisions,
// and audits. Decisions and audits are append-only; nothing here updates or
// deletes them.
package repository

import (
	"context"
	"errors"

	"leadqual_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type CreateLeadParams struct {
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
}

const leadColumns = `id, name, email, phone, program, role, experience_years,
	budget_band, region, intent_text, source, status, created_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var status string
	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Program,
		&lead.Role,
		&lead.ExperienceYears,
		&lead.BudgetBand,
		&lead.Region,
		&lead.IntentText,
		&lead.Source,
		&status,
		&lead.CreatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.Status(status)
	return lead, nil
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, email, phone, program, role, experience_years,
			budget_band, region, intent_text, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+leadColumns,
		params.Name, params.Email, params.Phone, params.Program, params.Role,
		params.ExperienceYears, params.BudgetBand, params.Region, params.IntentText, params.Source,
	)
	return scanLead(row)
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) ListLeads(ctx context.Context, status *domain.Status, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows pgx.Rows
	var err error
	if status != nil {
		rows, err = r.pool.Query(ctx, `
			SELECT `+leadColumns+` FROM leads
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2`, string(*status), limit)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+leadColumns+` FROM leads
			ORDER BY created_at DESC
			LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListLeadIDsByStatus returns the ids of all leads whose status is in the
// given set, used for batch requalification.
func (r *Repository) ListLeadIDsByStatus(ctx context.Context, statuses []domain.Status) ([]uuid.UUID, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id FROM leads
		WHERE status = ANY($1)
		ORDER BY created_at ASC`, raw)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) CountLeads(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&count)
	return count, err
}
