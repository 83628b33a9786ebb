package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the payable and receivable sides of the ledger
type Kind string

const (
	KindPayable    Kind = "PAYABLE"
	KindReceivable Kind = "RECEIVABLE"
)

// IsValid checks if the kind is a valid Kind
func (k Kind) IsValid() bool {
	return k == KindPayable || k == KindReceivable
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// Status represents the derived status of a ledger document
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPartial   Status = "PARTIAL"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the document is in a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// PaymentStatus tracks settlement progress independent of due-date effects
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// SourceType identifies the upstream document that spawned a ledger document
type SourceType string

const (
	SourceTypePurchaseOrder SourceType = "PURCHASE_ORDER"
	SourceTypeInvoice       SourceType = "INVOICE"
	SourceTypeManual        SourceType = "MANUAL"
)

// IsValid checks if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypePurchaseOrder, SourceTypeInvoice, SourceTypeManual:
		return true
	}
	return false
}

// PaymentMethod is how money moved for one entry
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodCheck        PaymentMethod = "CHECK"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCreditCard, MethodCheck:
		return true
	}
	return false
}

// PaymentEntry is one recorded movement of money against a document.
// Entries are append-only.
type PaymentEntry struct {
	ID        uuid.UUID       `json:"id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
}

// NewPaymentEntry creates a new payment entry
func NewPaymentEntry(date time.Time, amount valueobject.Money, method PaymentMethod, reference string) PaymentEntry {
	return PaymentEntry{
		ID:        uuid.New(),
		Date:      date,
		Amount:    amount.Amount(),
		Method:    method,
		Reference: reference,
	}
}

// PaymentEntries is a slice of PaymentEntry that implements GORM Scanner/Valuer for JSONB storage
type PaymentEntries []PaymentEntry

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentEntries) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentEntries) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentEntries{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentEntries: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentEntries{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// DeriveStatus computes the status pair from the document's monetary state.
// It is a pure function of (total, paid, dueDate, now); CANCELLED is
// out-of-band and never produced here.
func DeriveStatus(total, paid decimal.Decimal, dueDate *time.Time, now time.Time) (Status, PaymentStatus) {
	remaining := total.Sub(paid)
	switch {
	case remaining.LessThanOrEqual(decimal.Zero):
		return StatusPaid, PaymentStatusPaid
	case paid.IsPositive():
		return StatusPartial, PaymentStatusPartial
	case dueDate != nil && now.After(*dueDate):
		return StatusOverdue, PaymentStatusUnpaid
	default:
		return StatusPending, PaymentStatusUnpaid
	}
}

// Document is a payable or receivable ledger document: money owed to a
// supplier or due from a customer, with payments applied over time.
//
// Core invariants: outstanding == total - paid after every mutation, and at
// most one document exists per source document (enforced by a unique index
// at the storage layer).
type Document struct {
	shared.BaseAggregateRoot
	Kind           Kind            `json:"kind"`
	DocumentNumber string          `json:"document_number"`
	PartyID        uuid.UUID       `json:"party_id"`
	PartyName      string          `json:"party_name"`
	SourceType     SourceType      `json:"source_type"`
	SourceID       uuid.UUID       `json:"source_id"`
	SourceNumber   string          `json:"source_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Outstanding    decimal.Decimal `json:"outstanding_amount"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Status         Status          `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Entries        PaymentEntries  `json:"entries"`
	LocationCode   string          `json:"location_code,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
}

// NewDocument creates a new ledger document in its derived initial state
func NewDocument(kind Kind, documentNumber string, partyID uuid.UUID, partyName string, sourceType SourceType, sourceID uuid.UUID, sourceNumber string, total valueobject.Money, dueDate *time.Time) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Ledger kind %q is not valid", kind))
	}
	if documentNumber == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Document number cannot be empty")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Party ID cannot be empty")
	}
	if partyName == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Party name cannot be empty")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Source type is not valid")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Source ID cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Total amount must be positive")
	}

	doc := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		DocumentNumber:    documentNumber,
		PartyID:           partyID,
		PartyName:         partyName,
		SourceType:        sourceType,
		SourceID:          sourceID,
		SourceNumber:      sourceNumber,
		TotalAmount:       total.Amount(),
		PaidAmount:        decimal.Zero,
		Outstanding:       total.Amount(),
		DueDate:           dueDate,
		Entries:           make(PaymentEntries, 0),
	}
	doc.Status, doc.PaymentStatus = DeriveStatus(doc.TotalAmount, doc.PaidAmount, doc.DueDate, time.Now())

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))

	return doc, nil
}

// ApplyPayment appends a payment entry, updates the amounts and re-derives
// the status. It rejects settled documents and anything that would push paid
// beyond total, before any state changes.
func (d *Document) ApplyPayment(entry PaymentEntry) error {
	if d.Status == StatusCancelled {
		return shared.NewDomainError(shared.ErrCodeValidation, "Cannot apply a payment to a cancelled document")
	}
	if d.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError(shared.ErrCodeAlreadySettled, "Document is already fully settled")
	}
	if !entry.Amount.IsPositive() {
		return shared.NewDomainError(shared.ErrCodeValidation, "Payment amount must be positive")
	}
	if !entry.Method.IsValid() {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Payment method %q is not valid", entry.Method))
	}
	if d.PaidAmount.Add(entry.Amount).GreaterThan(d.TotalAmount) {
		return shared.NewDomainError(shared.ErrCodeOverpayment,
			fmt.Sprintf("Payment of %s exceeds the outstanding amount %s", entry.Amount, d.Outstanding))
	}

	d.Entries = append(d.Entries, entry)
	d.PaidAmount = d.PaidAmount.Add(entry.Amount)
	d.Outstanding = d.TotalAmount.Sub(d.PaidAmount)

	now := time.Now()
	d.Status, d.PaymentStatus = DeriveStatus(d.TotalAmount, d.PaidAmount, d.DueDate, now)
	if d.Status == StatusPaid {
		d.PaidAt = &now
		d.AddDomainEvent(NewDocumentSettledEvent(d))
	} else {
		d.AddDomainEvent(NewDocumentPaymentAppliedEvent(d, entry))
	}

	d.UpdatedAt = now
	d.IncrementVersion()

	return nil
}

// Refresh re-derives the status pair against the clock. Only the
// overdue/pending distinction can change; cancelled documents are left alone.
func (d *Document) Refresh(now time.Time) {
	if d.Status == StatusCancelled {
		return
	}
	d.Status, d.PaymentStatus = DeriveStatus(d.TotalAmount, d.PaidAmount, d.DueDate, now)
}

// Cancel cancels a document that has no recorded money movement
func (d *Document) Cancel(reason string) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Cannot cancel document in %s status", d.Status))
	}
	if d.PaidAmount.IsPositive() {
		return shared.NewDomainError(shared.ErrCodeHasPayments, "Cannot cancel a document with recorded payments")
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrCodeValidation, "Cancel reason is required")
	}
	d.cancel(reason)
	return nil
}

// ForceCancel cancels a document regardless of recorded payments. It exists
// only for the cascading path where the source document itself is cancelled
// and an auto-paid (credit card) ledger document must follow it; callers
// outside that path use Cancel.
func (d *Document) ForceCancel(reason string) error {
	if d.Status == StatusCancelled {
		return shared.NewDomainError(shared.ErrCodeValidation, "Document is already cancelled")
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrCodeValidation, "Cancel reason is required")
	}
	if d.Notes == "" {
		d.Notes = reason
	} else {
		d.Notes = d.Notes + "; " + reason
	}
	d.cancel(reason)
	return nil
}

func (d *Document) cancel(reason string) {
	now := time.Now()
	d.Status = StatusCancelled
	d.CancelledAt = &now
	d.CancelReason = reason
	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentCancelledEvent(d, reason))
}

// RepairLocation backfills the location tag on a document created before the
// field existed. It touches nothing else and reports whether a change was
// made.
func (d *Document) RepairLocation(locationCode string) bool {
	if locationCode == "" || d.LocationCode != "" {
		return false
	}
	d.LocationCode = locationCode
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return true
}

// CheckInvariants verifies the monetary invariants at the write boundary.
// A violation is a programming error, never a client fault.
func (d *Document) CheckInvariants() error {
	if !d.Outstanding.Equal(d.TotalAmount.Sub(d.PaidAmount)) {
		return shared.NewDomainError(shared.ErrCodeInvariantViolated,
			fmt.Sprintf("Document %s outstanding %s diverges from total %s - paid %s", d.DocumentNumber, d.Outstanding, d.TotalAmount, d.PaidAmount))
	}
	if d.PaidAmount.IsNegative() {
		return shared.NewDomainError(shared.ErrCodeInvariantViolated,
			fmt.Sprintf("Document %s has negative paid amount", d.DocumentNumber))
	}
	entrySum := decimal.Zero
	for _, e := range d.Entries {
		entrySum = entrySum.Add(e.Amount)
	}
	if !entrySum.Equal(d.PaidAmount) {
		return shared.NewDomainError(shared.ErrCodeInvariantViolated,
			fmt.Sprintf("Document %s paid amount %s diverges from its entries sum %s", d.DocumentNumber, d.PaidAmount, entrySum))
	}
	return nil
}

// IsSettled returns true if the document is fully paid
func (d *Document) IsSettled() bool {
	return d.PaymentStatus == PaymentStatusPaid
}

// IsCancelled returns true if the document is cancelled
func (d *Document) IsCancelled() bool {
	return d.Status == StatusCancelled
}
