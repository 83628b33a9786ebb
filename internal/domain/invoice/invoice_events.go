package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names for the invoice aggregate
const (
	EventTypeInvoiceCreated   = "InvoiceCreated"
	EventTypeInvoiceApproved  = "InvoiceApproved"
	EventTypeInvoiceCancelled = "InvoiceCancelled"
)

// InvoiceCreatedEvent is raised when a new invoice is generated
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ProjectID     uuid.UUID       `json:"project_id"`
	PeriodMonth   string          `json:"period_month"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	LineCount     int             `json:"line_count"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return EventTypeInvoiceCreated
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectID:       inv.ProjectID,
		PeriodMonth:     inv.PeriodMonth,
		TotalAmount:     inv.TotalAmount,
		LineCount:       len(inv.Lines),
	}
}

// InvoiceApprovedEvent is raised when an invoice is approved. The receivable
// auto-creation hook consumes it, so the event carries everything that hook
// needs without a lookup.
type InvoiceApprovedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ProjectID     uuid.UUID       `json:"project_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	ApprovedBy    uuid.UUID       `json:"approved_by"`
	ApprovedAt    time.Time       `json:"approved_at"`
}

// EventType returns the event type name
func (e *InvoiceApprovedEvent) EventType() string {
	return EventTypeInvoiceApproved
}

// NewInvoiceApprovedEvent creates a new InvoiceApprovedEvent
func NewInvoiceApprovedEvent(inv *Invoice) *InvoiceApprovedEvent {
	approvedBy := uuid.Nil
	if inv.ApprovedBy != nil {
		approvedBy = *inv.ApprovedBy
	}
	approvedAt := time.Now()
	if inv.ApprovedAt != nil {
		approvedAt = *inv.ApprovedAt
	}
	return &InvoiceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceApproved, "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectID:       inv.ProjectID,
		CustomerID:      inv.CustomerID,
		CustomerName:    inv.CustomerName,
		TotalAmount:     inv.TotalAmount,
		DueDate:         inv.DueDate(),
		ApprovedBy:      approvedBy,
		ApprovedAt:      approvedAt,
	}
}

// InvoiceCancelledEvent is raised when an invoice is cancelled; the ledger
// side cancels the spawned receivable in cascade.
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Reason        string    `json:"reason"`
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return EventTypeInvoiceCancelled
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, reason string) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          reason,
	}
}
