package invoice

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an invoice
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusOverdue   Status = "OVERDUE"
)

// IsValid checks if the status is a valid invoice Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusSent, StatusPaid, StatusCancelled, StatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// periodMonthPattern is the persisted period identifier format (yyyy-mm)
var periodMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidPeriodMonth reports whether the period identifier is a yyyy-mm string
func ValidPeriodMonth(periodMonth string) bool {
	return periodMonthPattern.MatchString(periodMonth)
}

// PeriodBounds resolves a yyyy-mm period identifier to its first day and the
// first day of the following month (half-open interval).
func PeriodBounds(periodMonth string) (time.Time, time.Time, error) {
	if !ValidPeriodMonth(periodMonth) {
		return time.Time{}, time.Time{}, shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Period month %q is not in yyyy-mm format", periodMonth))
	}
	start, err := time.Parse("2006-01", periodMonth)
	if err != nil {
		return time.Time{}, time.Time{}, shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Period month %q is not parseable", periodMonth))
	}
	return start, start.AddDate(0, 1, 0), nil
}

// UUIDList is a slice of UUIDs that implements GORM Scanner/Valuer for JSONB storage
type UUIDList []uuid.UUID

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *UUIDList) Scan(value interface{}) error {
	if value == nil {
		*l = UUIDList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan UUIDList: unsupported type")
	}

	if len(bytes) == 0 {
		*l = UUIDList{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Line is one billed position of an invoice. The amount is always derived
// from quantity and unit price, never stored independently of its inputs.
type Line struct {
	ID              uuid.UUID           `json:"id"`
	InvoiceID       uuid.UUID           `json:"invoice_id"`
	SortOrder       int                 `json:"sort_order"`
	Description     string              `json:"description"`
	Quantity        decimal.Decimal     `json:"quantity"`
	Unit            string              `json:"unit"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	Amount          decimal.Decimal     `json:"amount"`
	GroupingKey     billing.GroupingKey `json:"grouping_key"`
	GroupingValue   string              `json:"grouping_value"`
	RuleID          *uuid.UUID          `json:"rule_id,omitempty"`
	SourceRecordIDs UUIDList            `json:"source_record_ids"`
}

// Invoice is the billing document for one project and period. It owns its
// lines: deleting an invoice deletes the lines and unlinks the performance
// records they consumed.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber    string          `json:"invoice_number"`
	ProjectID        uuid.UUID       `json:"project_id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	CustomerName     string          `json:"customer_name"`
	PeriodMonth      string          `json:"period_month"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	Tax              decimal.Decimal `json:"tax"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	Status           Status          `json:"status"`
	Lines            []Line          `json:"lines"`
	ApprovedBy       *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
}

// DefaultPaymentTermsDays is the due-date offset applied when no payment
// terms are supplied.
const DefaultPaymentTermsDays = 30

// NewInvoice creates a draft invoice from line candidates. Line amounts and
// the header totals are recomputed here; caller-supplied amounts are ignored.
// A non-positive paymentTermsDays falls back to DefaultPaymentTermsDays.
func NewInvoice(invoiceNumber string, projectID, customerID uuid.UUID, customerName, periodMonth string, periodStart, periodEnd time.Time, taxRate decimal.Decimal, paymentTermsDays int, candidates []billing.LineCandidate) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if !ValidPeriodMonth(periodMonth) {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Period month %q is not in yyyy-mm format", periodMonth))
	}
	if periodEnd.Before(periodStart) {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Period end cannot precede period start")
	}
	if len(candidates) == 0 {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "An invoice requires at least one line")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Tax rate cannot be negative")
	}
	if paymentTermsDays <= 0 {
		paymentTermsDays = DefaultPaymentTermsDays
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		ProjectID:         projectID,
		CustomerID:        customerID,
		CustomerName:      customerName,
		PeriodMonth:       periodMonth,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		TaxRate:           taxRate,
		PaymentTermsDays:  paymentTermsDays,
		Status:            StatusDraft,
		Lines:             make([]Line, 0, len(candidates)),
	}

	for i, c := range candidates {
		line, err := newLine(inv.ID, i, c)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	inv.recomputeTotals()

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

func newLine(invoiceID uuid.UUID, sortOrder int, c billing.LineCandidate) (Line, error) {
	if c.Description == "" {
		return Line{}, shared.NewDomainError(shared.ErrCodeValidation, "Line description cannot be empty")
	}
	if !c.Quantity.IsPositive() {
		return Line{}, shared.NewDomainError(shared.ErrCodeValidation, "Line quantity must be positive")
	}
	if c.UnitPrice.IsNegative() {
		return Line{}, shared.NewDomainError(shared.ErrCodeValidation, "Line unit price cannot be negative")
	}

	var ruleID *uuid.UUID
	if c.RuleID != uuid.Nil {
		id := c.RuleID
		ruleID = &id
	}

	return Line{
		ID:              uuid.New(),
		InvoiceID:       invoiceID,
		SortOrder:       sortOrder,
		Description:     c.Description,
		Quantity:        c.Quantity,
		Unit:            c.Unit,
		UnitPrice:       c.UnitPrice,
		Amount:          c.Quantity.Mul(c.UnitPrice),
		GroupingKey:     c.GroupingKey,
		GroupingValue:   c.GroupingValue,
		RuleID:          ruleID,
		SourceRecordIDs: UUIDList(c.SourceRecordIDs),
	}, nil
}

func (inv *Invoice) recomputeTotals() {
	subtotal := decimal.Zero
	for _, line := range inv.Lines {
		subtotal = subtotal.Add(line.Amount)
	}
	inv.Subtotal = subtotal
	inv.Tax = subtotal.Mul(inv.TaxRate).Round(2)
	inv.TotalAmount = inv.Subtotal.Add(inv.Tax)
}

// Approve transitions the invoice to approved and stamps the approver.
// Downstream receivable creation is best-effort and rides on the emitted
// event; its failure never blocks the approval itself.
func (inv *Invoice) Approve(approverID uuid.UUID) error {
	if inv.Status != StatusDraft {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Cannot approve invoice in %s status", inv.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError(shared.ErrCodeValidation, "Approver ID cannot be empty")
	}

	now := time.Now()
	inv.Status = StatusApproved
	inv.ApprovedBy = &approverID
	inv.ApprovedAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceApprovedEvent(inv))

	return nil
}

// MarkSent transitions an approved invoice to sent
func (inv *Invoice) MarkSent() error {
	if inv.Status != StatusApproved {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Cannot send invoice in %s status", inv.Status))
	}
	inv.Status = StatusSent
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// MarkPaid records full settlement of the invoice
func (inv *Invoice) MarkPaid() error {
	if inv.Status != StatusApproved && inv.Status != StatusSent && inv.Status != StatusOverdue {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Cannot mark invoice paid in %s status", inv.Status))
	}
	inv.Status = StatusPaid
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// Cancel cancels the invoice. Cancellation cascades to the receivable the
// invoice spawned via the emitted event.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrCodeValidation, "Cancel reason is required")
	}

	now := time.Now()
	inv.Status = StatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, reason))

	return nil
}

// SourceRecordIDs returns the ids of every performance record any line
// consumed, in line order
func (inv *Invoice) SourceRecordIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, line := range inv.Lines {
		ids = append(ids, line.SourceRecordIDs...)
	}
	return ids
}

// CheckTotals verifies the header totals against the lines. A mismatch is a
// programming error caught at the write boundary.
func (inv *Invoice) CheckTotals() error {
	subtotal := decimal.Zero
	for _, line := range inv.Lines {
		if !line.Amount.Equal(line.Quantity.Mul(line.UnitPrice)) {
			return shared.NewDomainError(shared.ErrCodeInvariantViolated,
				fmt.Sprintf("Line %s amount diverges from quantity x unit price", line.ID))
		}
		subtotal = subtotal.Add(line.Amount)
	}
	if !inv.Subtotal.Equal(subtotal) {
		return shared.NewDomainError(shared.ErrCodeInvariantViolated, "Invoice subtotal diverges from the sum of its lines")
	}
	if !inv.TotalAmount.Equal(inv.Subtotal.Add(inv.Tax)) {
		return shared.NewDomainError(shared.ErrCodeInvariantViolated, "Invoice total diverges from subtotal plus tax")
	}
	return nil
}

// DueDate derives the payment due date from the approval time and terms
func (inv *Invoice) DueDate() *time.Time {
	if inv.ApprovedAt == nil {
		return nil
	}
	due := inv.ApprovedAt.AddDate(0, 0, inv.PaymentTermsDays)
	return &due
}
