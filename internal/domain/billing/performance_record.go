package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RecordKind identifies the concrete kind of a performance record
type RecordKind string

const (
	RecordKindShipment RecordKind = "SHIPMENT"
	RecordKindLabor    RecordKind = "LABOR"
)

// IsValid checks if the kind is a valid RecordKind
func (k RecordKind) IsValid() bool {
	return k == RecordKindShipment || k == RecordKindLabor
}

// UnknownGroup is the sentinel partition for records missing the chosen
// grouping field. Grouping never fails on an absent value.
const UnknownGroup = "UNKNOWN"

// PerformanceRecord is a raw operational fact eligible to be billed.
// Records are produced by upstream intake and consumed read-only by the rule
// engine; the billing pipeline only ever flips the invoiced link.
type PerformanceRecord interface {
	RecordID() uuid.UUID
	Project() uuid.UUID
	RecordDate() time.Time
	Kind() RecordKind
	// GroupValue resolves the grouping value for the given key.
	// Date values are truncated to the calendar day.
	GroupValue(key GroupingKey) string
	IsInvoiced() bool
}

// Shipment is a delivery record scoped to a project and date
type Shipment struct {
	shared.BaseEntity
	ProjectID   uuid.UUID       `json:"project_id"`
	Date        time.Time       `json:"date"`
	PartNo      string          `json:"part_no"`
	Quantity    decimal.Decimal `json:"quantity"`
	PalletNo    string          `json:"pallet_no"`
	PalletCount int             `json:"pallet_count"`
	Invoiced    bool            `json:"invoiced"`
	InvoiceID   *uuid.UUID      `json:"invoice_id,omitempty"`
}

// NewShipment creates a new shipment record
func NewShipment(projectID uuid.UUID, date time.Time, partNo string, quantity decimal.Decimal, palletNo string, palletCount int) (*Shipment, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Shipment quantity cannot be negative")
	}
	return &Shipment{
		BaseEntity:  shared.NewBaseEntity(),
		ProjectID:   projectID,
		Date:        date,
		PartNo:      partNo,
		Quantity:    quantity,
		PalletNo:    palletNo,
		PalletCount: palletCount,
	}, nil
}

// RecordID returns the record identifier
func (s *Shipment) RecordID() uuid.UUID { return s.ID }

// Project returns the owning project
func (s *Shipment) Project() uuid.UUID { return s.ProjectID }

// RecordDate returns the operational date
func (s *Shipment) RecordDate() time.Time { return s.Date }

// Kind returns RecordKindShipment
func (s *Shipment) Kind() RecordKind { return RecordKindShipment }

// IsInvoiced reports whether the record has been consumed by an invoice
func (s *Shipment) IsInvoiced() bool { return s.Invoiced }

// GroupValue resolves the grouping value for a shipment
func (s *Shipment) GroupValue(key GroupingKey) string {
	switch key {
	case GroupByPartNo:
		return orUnknown(s.PartNo)
	case GroupByPalletNo:
		return orUnknown(s.PalletNo)
	case GroupByDate:
		return s.Date.Format("2006-01-02")
	case GroupByNone:
		return ""
	default:
		return UnknownGroup
	}
}

// MarkInvoiced links the record to the invoice that consumed it.
// A record with invoiced=true always carries a non-nil invoice ID.
func (s *Shipment) MarkInvoiced(invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if s.Invoiced {
		return shared.NewDomainError("ALREADY_INVOICED", "Record has already been billed")
	}
	s.Invoiced = true
	s.InvoiceID = &invoiceID
	s.UpdatedAt = time.Now()
	return nil
}

// Unlink clears the invoiced flag and invoice reference
func (s *Shipment) Unlink() {
	s.Invoiced = false
	s.InvoiceID = nil
	s.UpdatedAt = time.Now()
}

// LaborEntry is a logged block of billable work hours
type LaborEntry struct {
	shared.BaseEntity
	ProjectID  uuid.UUID        `json:"project_id"`
	Date       time.Time        `json:"date"`
	WorkType   string           `json:"work_type"`
	Hours      decimal.Decimal  `json:"hours"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty"`
	Invoiced   bool             `json:"invoiced"`
	InvoiceID  *uuid.UUID       `json:"invoice_id,omitempty"`
}

// NewLaborEntry creates a new labor record
func NewLaborEntry(projectID uuid.UUID, date time.Time, workType string, hours decimal.Decimal, hourlyRate *decimal.Decimal) (*LaborEntry, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if hours.IsNegative() {
		return nil, shared.NewDomainError("INVALID_HOURS", "Labor hours cannot be negative")
	}
	return &LaborEntry{
		BaseEntity: shared.NewBaseEntity(),
		ProjectID:  projectID,
		Date:       date,
		WorkType:   workType,
		Hours:      hours,
		HourlyRate: hourlyRate,
	}, nil
}

// RecordID returns the record identifier
func (l *LaborEntry) RecordID() uuid.UUID { return l.ID }

// Project returns the owning project
func (l *LaborEntry) Project() uuid.UUID { return l.ProjectID }

// RecordDate returns the operational date
func (l *LaborEntry) RecordDate() time.Time { return l.Date }

// Kind returns RecordKindLabor
func (l *LaborEntry) Kind() RecordKind { return RecordKindLabor }

// IsInvoiced reports whether the record has been consumed by an invoice
func (l *LaborEntry) IsInvoiced() bool { return l.Invoiced }

// GroupValue resolves the grouping value for a labor entry
func (l *LaborEntry) GroupValue(key GroupingKey) string {
	switch key {
	case GroupByWorkType:
		return orUnknown(l.WorkType)
	case GroupByDate:
		return l.Date.Format("2006-01-02")
	case GroupByNone:
		return ""
	default:
		return UnknownGroup
	}
}

// MarkInvoiced links the record to the invoice that consumed it
func (l *LaborEntry) MarkInvoiced(invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if l.Invoiced {
		return shared.NewDomainError("ALREADY_INVOICED", "Record has already been billed")
	}
	l.Invoiced = true
	l.InvoiceID = &invoiceID
	l.UpdatedAt = time.Now()
	return nil
}

// Unlink clears the invoiced flag and invoice reference
func (l *LaborEntry) Unlink() {
	l.Invoiced = false
	l.InvoiceID = nil
	l.UpdatedAt = time.Now()
}

func orUnknown(v string) string {
	if v == "" {
		return UnknownGroup
	}
	return v
}
