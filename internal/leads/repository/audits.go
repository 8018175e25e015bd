package repository

import (
	"context"
	"encoding/json"

	"leadqual_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AppendAuditParams struct {
	ActorID uuid.UUID
	Action  string
	Payload map[string]any
}

// AppendAudit writes one immutable audit entry.
func (r *Repository) AppendAudit(ctx context.Context, params AppendAuditParams) (domain.Audit, error) {
	payload, err := json.Marshal(params.Payload)
	if err != nil {
		return domain.Audit{}, err
	}

	audit := domain.Audit{
		ActorID: params.ActorID,
		Action:  params.Action,
		Payload: params.Payload,
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO audits (actor_id, action, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		params.ActorID, params.Action, payload,
	).Scan(&audit.ID, &audit.CreatedAt)
	return audit, err
}

// ListAudits returns audit entries, newest first, optionally filtered by action.
func (r *Repository) ListAudits(ctx context.Context, action string, limit int) ([]domain.Audit, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows pgx.Rows
	var err error
	if action != "" {
		rows, err = r.pool.Query(ctx, `
			SELECT id, actor_id, action, payload, created_at FROM audits
			WHERE action = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, action, limit)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT id, actor_id, action, payload, created_at FROM audits
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audits := make([]domain.Audit, 0)
	for rows.Next() {
		var a domain.Audit
		var payload []byte
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &a.Payload); err != nil {
				return nil, err
			}
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}
