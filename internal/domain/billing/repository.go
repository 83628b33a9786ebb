package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RuleRepository manages billing rule persistence
type RuleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	// FindActiveForPeriod returns the rules participating in a generation run:
	// active rules whose effectivity window overlaps the invoice period.
	FindActiveForPeriod(ctx context.Context, projectID uuid.UUID, periodStart, periodEnd time.Time) ([]Rule, error)
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]Rule, error)
	Save(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PerformanceRecordRepository reads and links the raw operational records.
// Records are created by upstream intake; the billing pipeline only flips the
// invoiced link, it never deletes them.
type PerformanceRecordRepository interface {
	// FindUnbilled returns uninvoiced records for the project and period,
	// shipments before labor entries, each in insertion order.
	FindUnbilled(ctx context.Context, projectID uuid.UUID, periodStart, periodEnd time.Time) ([]PerformanceRecord, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]PerformanceRecord, error)
	SaveShipment(ctx context.Context, s *Shipment) error
	SaveLaborEntry(ctx context.Context, l *LaborEntry) error
	// MarkInvoiced links the given records to the invoice that consumed them.
	MarkInvoiced(ctx context.Context, recordIDs []uuid.UUID, invoiceID uuid.UUID) error
	// UnlinkByInvoice clears invoiced flags for every record the invoice consumed.
	UnlinkByInvoice(ctx context.Context, invoiceID uuid.UUID) error
}
