package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The unique (project, period) index is what makes duplicate generation runs
// lose deterministically.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber    string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProjectID        uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_project_period,priority:1"`
	CustomerID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerName     string             `gorm:"type:varchar(200);not null"`
	PeriodMonth      string             `gorm:"type:varchar(7);not null;uniqueIndex:idx_invoices_project_period,priority:2"`
	PeriodStart      time.Time          `gorm:"not null"`
	PeriodEnd        time.Time          `gorm:"not null"`
	Subtotal         decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	TaxRate          decimal.Decimal    `gorm:"type:decimal(8,4);not null"`
	Tax              decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	TotalAmount      decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	PaymentTermsDays int                `gorm:"not null;default:30"`
	Status           invoice.Status     `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Lines            []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
	ApprovedBy       *uuid.UUID         `gorm:"type:uuid"`
	ApprovedAt       *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		ProjectID:         m.ProjectID,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		PeriodMonth:       m.PeriodMonth,
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		Subtotal:          m.Subtotal,
		TaxRate:           m.TaxRate,
		Tax:               m.Tax,
		TotalAmount:       m.TotalAmount,
		PaymentTermsDays:  m.PaymentTermsDays,
		Status:            m.Status,
		Lines:             make([]invoice.Line, len(m.Lines)),
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
	for i, line := range m.Lines {
		inv.Lines[i] = *line.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.ProjectID = inv.ProjectID
	m.CustomerID = inv.CustomerID
	m.CustomerName = inv.CustomerName
	m.PeriodMonth = inv.PeriodMonth
	m.PeriodStart = inv.PeriodStart
	m.PeriodEnd = inv.PeriodEnd
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.Tax = inv.Tax
	m.TotalAmount = inv.TotalAmount
	m.PaymentTermsDays = inv.PaymentTermsDays
	m.Status = inv.Status
	m.ApprovedBy = inv.ApprovedBy
	m.ApprovedAt = inv.ApprovedAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
	m.Lines = make([]InvoiceLineModel, len(inv.Lines))
	for i, line := range inv.Lines {
		m.Lines[i].FromDomain(line)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineModel is the persistence model for one invoice line.
type InvoiceLineModel struct {
	ID              uuid.UUID           `gorm:"type:uuid;primary_key"`
	InvoiceID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	SortOrder       int                 `gorm:"not null;default:0"`
	Description     string              `gorm:"type:varchar(500);not null"`
	Quantity        decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Unit            string              `gorm:"type:varchar(20)"`
	UnitPrice       decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Amount          decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	GroupingKey     billing.GroupingKey `gorm:"type:varchar(20);not null"`
	GroupingValue   string              `gorm:"type:varchar(200)"`
	RuleID          *uuid.UUID          `gorm:"type:uuid"`
	SourceRecordIDs invoice.UUIDList    `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Line
func (m *InvoiceLineModel) ToDomain() *invoice.Line {
	return &invoice.Line{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		SortOrder:       m.SortOrder,
		Description:     m.Description,
		Quantity:        m.Quantity,
		Unit:            m.Unit,
		UnitPrice:       m.UnitPrice,
		Amount:          m.Amount,
		GroupingKey:     m.GroupingKey,
		GroupingValue:   m.GroupingValue,
		RuleID:          m.RuleID,
		SourceRecordIDs: m.SourceRecordIDs,
	}
}

// FromDomain populates the persistence model from a domain Line
func (m *InvoiceLineModel) FromDomain(line invoice.Line) {
	m.ID = line.ID
	m.InvoiceID = line.InvoiceID
	m.SortOrder = line.SortOrder
	m.Description = line.Description
	m.Quantity = line.Quantity
	m.Unit = line.Unit
	m.UnitPrice = line.UnitPrice
	m.Amount = line.Amount
	m.GroupingKey = line.GroupingKey
	m.GroupingValue = line.GroupingValue
	m.RuleID = line.RuleID
	m.SourceRecordIDs = line.SourceRecordIDs
}
