package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/transport"
	"leadqual_backend/platform/apperr"
	"leadqual_backend/platform/phone"

	"github.com/google/uuid"
)

// maxImportErrors caps the error list returned to the caller; the full count
// is still reflected in Skipped.
const maxImportErrors = 20

// ImportCSV ingests leads from a CSV stream. The first row must be a header;
// columns are matched by name so column order does not matter. Rows without a
// name are skipped and reported, the rest of the batch still imports.
func (s *Service) ImportCSV(ctx context.Context, actorID uuid.UUID, r io.Reader) (transport.ImportResponse, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return transport.ImportResponse{}, apperr.BadRequest("csv: missing header row")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["name"]; !ok {
		return transport.ImportResponse{}, apperr.BadRequest("csv: header must include a name column")
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var result transport.ImportResponse
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			if len(result.Errors) < maxImportErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			}
			continue
		}

		name := field(record, "name")
		if name == "" {
			result.Skipped++
			if len(result.Errors) < maxImportErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing name", line))
			}
			continue
		}

		experience := 0
		if raw := field(record, "experience_years"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				result.Skipped++
				if len(result.Errors) < maxImportErrors {
					result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid experience_years %q", line, raw))
				}
				continue
			}
			experience = parsed
		}

		_, err = s.repo.CreateLead(ctx, repository.CreateLeadParams{
			Name:            name,
			Email:           optional(field(record, "email")),
			Phone:           optional(phone.NormalizeE164(field(record, "phone"))),
			Program:         optional(field(record, "program")),
			Role:            optional(field(record, "role")),
			ExperienceYears: experience,
			BudgetBand:      optional(field(record, "budget_band")),
			Region:          optional(field(record, "region")),
			IntentText:      optional(field(record, "intent_text")),
			Source:          optional(field(record, "source")),
		})
		if err != nil {
			result.Skipped++
			if len(result.Errors) < maxImportErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			}
			continue
		}
		result.Imported++
	}

	if _, err := s.repo.AppendAudit(ctx, repository.AppendAuditParams{
		ActorID: actorID,
		Action:  domain.ActionCSVImport,
		Payload: map[string]any{"imported": result.Imported, "skipped": result.Skipped},
	}); err != nil {
		s.log.Error("failed to append csv_import audit", "error", err)
	}

	s.bus.Publish(ctx, events.LeadsImported{
		BaseEvent: events.NewBaseEvent(),
		ActorID:   actorID,
		Imported:  result.Imported,
		Skipped:   result.Skipped,
	})

	return result, nil
}
