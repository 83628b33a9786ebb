package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names for the ledger document aggregate
const (
	EventTypeDocumentCreated        = "LedgerDocumentCreated"
	EventTypeDocumentPaymentApplied = "LedgerDocumentPaymentApplied"
	EventTypeDocumentSettled        = "LedgerDocumentSettled"
	EventTypeDocumentCancelled      = "LedgerDocumentCancelled"
)

// DocumentCreatedEvent is raised when a new ledger document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Kind           Kind            `json:"kind"`
	SourceType     SourceType      `json:"source_type"`
	SourceID       uuid.UUID       `json:"source_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *DocumentCreatedEvent) EventType() string {
	return EventTypeDocumentCreated
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, "LedgerDocument", d.ID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Kind:            d.Kind,
		SourceType:      d.SourceType,
		SourceID:        d.SourceID,
		TotalAmount:     d.TotalAmount,
		DueDate:         d.DueDate,
	}
}

// DocumentPaymentAppliedEvent is raised when a partial payment is recorded
type DocumentPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Kind           Kind            `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Outstanding    decimal.Decimal `json:"outstanding_amount"`
}

// EventType returns the event type name
func (e *DocumentPaymentAppliedEvent) EventType() string {
	return EventTypeDocumentPaymentApplied
}

// NewDocumentPaymentAppliedEvent creates a new DocumentPaymentAppliedEvent
func NewDocumentPaymentAppliedEvent(d *Document, entry PaymentEntry) *DocumentPaymentAppliedEvent {
	return &DocumentPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentPaymentApplied, "LedgerDocument", d.ID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Kind:            d.Kind,
		Amount:          entry.Amount,
		PaidAmount:      d.PaidAmount,
		Outstanding:     d.Outstanding,
	}
}

// DocumentSettledEvent is raised when a document becomes fully paid
type DocumentSettledEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Kind           Kind            `json:"kind"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAt         time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *DocumentSettledEvent) EventType() string {
	return EventTypeDocumentSettled
}

// NewDocumentSettledEvent creates a new DocumentSettledEvent
func NewDocumentSettledEvent(d *Document) *DocumentSettledEvent {
	paidAt := time.Now()
	if d.PaidAt != nil {
		paidAt = *d.PaidAt
	}
	return &DocumentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentSettled, "LedgerDocument", d.ID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Kind:            d.Kind,
		TotalAmount:     d.TotalAmount,
		PaidAt:          paidAt,
	}
}

// DocumentCancelledEvent is raised when a document is cancelled
type DocumentCancelledEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID `json:"document_id"`
	DocumentNumber string    `json:"document_number"`
	Kind           Kind      `json:"kind"`
	Reason         string    `json:"reason"`
}

// EventType returns the event type name
func (e *DocumentCancelledEvent) EventType() string {
	return EventTypeDocumentCancelled
}

// NewDocumentCancelledEvent creates a new DocumentCancelledEvent
func NewDocumentCancelledEvent(d *Document, reason string) *DocumentCancelledEvent {
	return &DocumentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCancelled, "LedgerDocument", d.ID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Kind:            d.Kind,
		Reason:          reason,
	}
}
