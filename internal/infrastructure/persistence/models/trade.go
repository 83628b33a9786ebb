package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/logistics-erp/backend/internal/domain/trade"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber      string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	SupplierName     string               `gorm:"type:varchar(200);not null"`
	TotalAmount      valueobject.Money    `gorm:"type:decimal(18,4);not null"`
	OrderDate        time.Time            `gorm:"not null"`
	PaymentTermsDays int                  `gorm:"not null;default:30"`
	PaymentMethod    ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	LocationCode     string               `gorm:"type:varchar(50)"`
	Status           trade.OrderStatus    `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ApprovedAt       *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	return &trade.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		TotalAmount:       m.TotalAmount,
		OrderDate:         m.OrderDate,
		PaymentTermsDays:  m.PaymentTermsDays,
		PaymentMethod:     m.PaymentMethod,
		LocationCode:      m.LocationCode,
		Status:            m.Status,
		ApprovedAt:        m.ApprovedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain PurchaseOrder
func (m *PurchaseOrderModel) FromDomain(o *trade.PurchaseOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SupplierID = o.SupplierID
	m.SupplierName = o.SupplierName
	m.TotalAmount = o.TotalAmount
	m.OrderDate = o.OrderDate
	m.PaymentTermsDays = o.PaymentTermsDays
	m.PaymentMethod = o.PaymentMethod
	m.LocationCode = o.LocationCode
	m.Status = o.Status
	m.ApprovedAt = o.ApprovedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}
