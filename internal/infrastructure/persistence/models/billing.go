package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillingRuleModel is the persistence model for the billing Rule aggregate root.
type BillingRuleModel struct {
	AggregateModel
	ProjectID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name          string              `gorm:"type:varchar(200);not null"`
	RuleType      billing.RuleType    `gorm:"type:varchar(20);not null"`
	GroupingKey   billing.GroupingKey `gorm:"type:varchar(20);not null"`
	PriceSource   billing.PriceSource `gorm:"type:varchar(20);not null"`
	Config        billing.RuleConfig  `gorm:"type:jsonb;not null;default:'{}'"`
	Priority      int                 `gorm:"not null;default:0"`
	IsActive      bool                `gorm:"not null;index"`
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
}

// TableName returns the table name for GORM
func (BillingRuleModel) TableName() string {
	return "billing_rules"
}

// ToDomain converts the persistence model to a domain Rule
func (m *BillingRuleModel) ToDomain() *billing.Rule {
	return &billing.Rule{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ProjectID:         m.ProjectID,
		Name:              m.Name,
		RuleType:          m.RuleType,
		GroupingKey:       m.GroupingKey,
		PriceSource:       m.PriceSource,
		Config:            m.Config,
		Priority:          m.Priority,
		IsActive:          m.IsActive,
		EffectiveFrom:     m.EffectiveFrom,
		EffectiveTo:       m.EffectiveTo,
	}
}

// FromDomain populates the persistence model from a domain Rule
func (m *BillingRuleModel) FromDomain(r *billing.Rule) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ProjectID = r.ProjectID
	m.Name = r.Name
	m.RuleType = r.RuleType
	m.GroupingKey = r.GroupingKey
	m.PriceSource = r.PriceSource
	m.Config = r.Config
	m.Priority = r.Priority
	m.IsActive = r.IsActive
	m.EffectiveFrom = r.EffectiveFrom
	m.EffectiveTo = r.EffectiveTo
}

// BillingRuleModelFromDomain creates a new persistence model from a domain Rule
func BillingRuleModelFromDomain(r *billing.Rule) *BillingRuleModel {
	m := &BillingRuleModel{}
	m.FromDomain(r)
	return m
}

// ShipmentModel is the persistence model for shipment performance records.
type ShipmentModel struct {
	BaseModel
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_shipments_project_date"`
	Date        time.Time       `gorm:"not null;index:idx_shipments_project_date"`
	PartNo      string          `gorm:"type:varchar(100)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PalletNo    string          `gorm:"type:varchar(100)"`
	PalletCount int             `gorm:"not null;default:0"`
	Invoiced    bool            `gorm:"not null;default:false;index"`
	InvoiceID   *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *billing.Shipment {
	return &billing.Shipment{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ProjectID:   m.ProjectID,
		Date:        m.Date,
		PartNo:      m.PartNo,
		Quantity:    m.Quantity,
		PalletNo:    m.PalletNo,
		PalletCount: m.PalletCount,
		Invoiced:    m.Invoiced,
		InvoiceID:   m.InvoiceID,
	}
}

// FromDomain populates the persistence model from a domain Shipment
func (m *ShipmentModel) FromDomain(s *billing.Shipment) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.ProjectID = s.ProjectID
	m.Date = s.Date
	m.PartNo = s.PartNo
	m.Quantity = s.Quantity
	m.PalletNo = s.PalletNo
	m.PalletCount = s.PalletCount
	m.Invoiced = s.Invoiced
	m.InvoiceID = s.InvoiceID
}

// ShipmentModelFromDomain creates a new persistence model from a domain Shipment
func ShipmentModelFromDomain(s *billing.Shipment) *ShipmentModel {
	m := &ShipmentModel{}
	m.FromDomain(s)
	return m
}

// LaborEntryModel is the persistence model for labor performance records.
type LaborEntryModel struct {
	BaseModel
	ProjectID  uuid.UUID        `gorm:"type:uuid;not null;index:idx_labor_entries_project_date"`
	Date       time.Time        `gorm:"not null;index:idx_labor_entries_project_date"`
	WorkType   string           `gorm:"type:varchar(100)"`
	Hours      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	HourlyRate *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Invoiced   bool             `gorm:"not null;default:false;index"`
	InvoiceID  *uuid.UUID       `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (LaborEntryModel) TableName() string {
	return "labor_entries"
}

// ToDomain converts the persistence model to a domain LaborEntry
func (m *LaborEntryModel) ToDomain() *billing.LaborEntry {
	return &billing.LaborEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ProjectID:  m.ProjectID,
		Date:       m.Date,
		WorkType:   m.WorkType,
		Hours:      m.Hours,
		HourlyRate: m.HourlyRate,
		Invoiced:   m.Invoiced,
		InvoiceID:  m.InvoiceID,
	}
}

// FromDomain populates the persistence model from a domain LaborEntry
func (m *LaborEntryModel) FromDomain(l *billing.LaborEntry) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.ProjectID = l.ProjectID
	m.Date = l.Date
	m.WorkType = l.WorkType
	m.Hours = l.Hours
	m.HourlyRate = l.HourlyRate
	m.Invoiced = l.Invoiced
	m.InvoiceID = l.InvoiceID
}

// LaborEntryModelFromDomain creates a new persistence model from a domain LaborEntry
func LaborEntryModelFromDomain(l *billing.LaborEntry) *LaborEntryModel {
	m := &LaborEntryModel{}
	m.FromDomain(l)
	return m
}
