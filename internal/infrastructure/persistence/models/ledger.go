package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// LedgerDocumentModel is the persistence model for the ledger Document
// aggregate root. The unique index on SourceID enforces at most one ledger
// document per source document.
type LedgerDocumentModel struct {
	AggregateModel
	Kind           ledger.Kind           `gorm:"type:varchar(15);not null;index"`
	DocumentNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	PartyID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	PartyName      string                `gorm:"type:varchar(200);not null"`
	SourceType     ledger.SourceType     `gorm:"type:varchar(30);not null"`
	SourceID       uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	SourceNumber   string                `gorm:"type:varchar(50)"`
	TotalAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Outstanding    decimal.Decimal       `gorm:"type:decimal(18,4);not null;index"`
	DueDate        *time.Time            `gorm:"index"`
	Status         ledger.Status         `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentStatus  ledger.PaymentStatus  `gorm:"type:varchar(20);not null;default:'UNPAID'"`
	Entries        ledger.PaymentEntries `gorm:"type:jsonb;default:'[]'"`
	LocationCode   string                `gorm:"type:varchar(50)"`
	Notes          string                `gorm:"type:text"`
	PaidAt         *time.Time
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LedgerDocumentModel) TableName() string {
	return "ledger_documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *LedgerDocumentModel) ToDomain() *ledger.Document {
	return &ledger.Document{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Kind:              m.Kind,
		DocumentNumber:    m.DocumentNumber,
		PartyID:           m.PartyID,
		PartyName:         m.PartyName,
		SourceType:        m.SourceType,
		SourceID:          m.SourceID,
		SourceNumber:      m.SourceNumber,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		Outstanding:       m.Outstanding,
		DueDate:           m.DueDate,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		Entries:           m.Entries,
		LocationCode:      m.LocationCode,
		Notes:             m.Notes,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain Document
func (m *LedgerDocumentModel) FromDomain(doc *ledger.Document) {
	m.FromDomainAggregateRoot(doc.BaseAggregateRoot)
	m.Kind = doc.Kind
	m.DocumentNumber = doc.DocumentNumber
	m.PartyID = doc.PartyID
	m.PartyName = doc.PartyName
	m.SourceType = doc.SourceType
	m.SourceID = doc.SourceID
	m.SourceNumber = doc.SourceNumber
	m.TotalAmount = doc.TotalAmount
	m.PaidAmount = doc.PaidAmount
	m.Outstanding = doc.Outstanding
	m.DueDate = doc.DueDate
	m.Status = doc.Status
	m.PaymentStatus = doc.PaymentStatus
	m.Entries = doc.Entries
	m.LocationCode = doc.LocationCode
	m.Notes = doc.Notes
	m.PaidAt = doc.PaidAt
	m.CancelledAt = doc.CancelledAt
	m.CancelReason = doc.CancelReason
}

// LedgerDocumentModelFromDomain creates a new persistence model from a domain Document
func LedgerDocumentModelFromDomain(doc *ledger.Document) *LedgerDocumentModel {
	m := &LedgerDocumentModel{}
	m.FromDomain(doc)
	return m
}

// DocumentSequenceModel is one per-(prefix, year) document number counter.
type DocumentSequenceModel struct {
	Prefix string `gorm:"type:varchar(10);primary_key"`
	Year   int    `gorm:"primary_key;autoIncrement:false"`
	Value  int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}

// ReconciliationTaskModel is the persistence model for reconciliation tasks.
type ReconciliationTaskModel struct {
	BaseModel
	Kind       ledger.Kind                 `gorm:"type:varchar(15);not null"`
	SourceType ledger.SourceType           `gorm:"type:varchar(30);not null"`
	SourceID   uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"`
	Reason     string                      `gorm:"type:text"`
	Attempts   int                         `gorm:"not null;default:1"`
	Status     ledger.ReconciliationStatus `gorm:"type:varchar(15);not null;default:'OPEN';index"`
	ResolvedAt *time.Time
}

// TableName returns the table name for GORM
func (ReconciliationTaskModel) TableName() string {
	return "reconciliation_tasks"
}

// ToDomain converts the persistence model to a domain ReconciliationTask
func (m *ReconciliationTaskModel) ToDomain() *ledger.ReconciliationTask {
	return &ledger.ReconciliationTask{
		BaseEntity: m.BaseModel.ToDomain(),
		Kind:       m.Kind,
		SourceType: m.SourceType,
		SourceID:   m.SourceID,
		Reason:     m.Reason,
		Attempts:   m.Attempts,
		Status:     m.Status,
		ResolvedAt: m.ResolvedAt,
	}
}

// FromDomain populates the persistence model from a domain ReconciliationTask
func (m *ReconciliationTaskModel) FromDomain(t *ledger.ReconciliationTask) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Kind = t.Kind
	m.SourceType = t.SourceType
	m.SourceID = t.SourceID
	m.Reason = t.Reason
	m.Attempts = t.Attempts
	m.Status = t.Status
	m.ResolvedAt = t.ResolvedAt
}

// ReconciliationTaskModelFromDomain creates a new persistence model from a domain ReconciliationTask
func ReconciliationTaskModelFromDomain(t *ledger.ReconciliationTask) *ReconciliationTaskModel {
	m := &ReconciliationTaskModel{}
	m.FromDomain(t)
	return m
}
