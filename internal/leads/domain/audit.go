package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit action names recorded by the system.
const (
	ActionLeadCreated   = "lead_created"
	ActionCSVImport     = "csv_import"
	ActionDecisionMade  = "decision_made"
	ActionBatchRequeued = "batch_requalify_enqueued"
)

// Audit is an immutable log entry recording a state-changing action. Audits
// are append-only and exist purely for traceability; they carry no business
// logic.
type Audit struct {
	ID        uuid.UUID
	ActorID   uuid.UUID
	Action    string
	Payload   map[string]any
	CreatedAt time.Time
}
