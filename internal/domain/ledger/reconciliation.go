package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/shared"
)

// ReconciliationStatus is the lifecycle of a reconciliation task
type ReconciliationStatus string

const (
	ReconciliationOpen     ReconciliationStatus = "OPEN"
	ReconciliationResolved ReconciliationStatus = "RESOLVED"
)

// ReconciliationTask is a durable marker left behind when best-effort ledger
// auto-creation fails during a primary action (purchase-order or invoice
// approval). The primary action succeeds regardless; the task is what the
// repair pass acts on later.
type ReconciliationTask struct {
	shared.BaseEntity
	Kind       Kind                 `json:"kind"`
	SourceType SourceType           `json:"source_type"`
	SourceID   uuid.UUID            `json:"source_id"`
	Reason     string               `json:"reason"`
	Attempts   int                  `json:"attempts"`
	Status     ReconciliationStatus `json:"status"`
	ResolvedAt *time.Time           `json:"resolved_at,omitempty"`
}

// NewReconciliationTask creates an open reconciliation task
func NewReconciliationTask(kind Kind, sourceType SourceType, sourceID uuid.UUID, reason string) *ReconciliationTask {
	return &ReconciliationTask{
		BaseEntity: shared.NewBaseEntity(),
		Kind:       kind,
		SourceType: sourceType,
		SourceID:   sourceID,
		Reason:     reason,
		Attempts:   1,
		Status:     ReconciliationOpen,
	}
}

// RecordAttempt notes another failed repair attempt with its reason
func (t *ReconciliationTask) RecordAttempt(reason string) {
	t.Attempts++
	t.Reason = reason
	t.UpdatedAt = time.Now()
}

// Resolve closes the task once the ledger document exists
func (t *ReconciliationTask) Resolve() {
	now := time.Now()
	t.Status = ReconciliationResolved
	t.ResolvedAt = &now
	t.UpdatedAt = now
}

// IsOpen returns true while the task still needs repair
func (t *ReconciliationTask) IsOpen() bool {
	return t.Status == ReconciliationOpen
}
