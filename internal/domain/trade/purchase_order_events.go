package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderApproved  = "PurchaseOrderApproved"
	EventTypePurchaseOrderCancelled = "PurchaseOrderCancelled"
)

// PurchaseOrderApprovedEvent is raised when a purchase order is approved.
// It carries everything the payable auto-creation path needs so the handler
// never reads the order back.
type PurchaseOrderApprovedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID            `json:"order_id"`
	OrderNumber      string               `json:"order_number"`
	SupplierID       uuid.UUID            `json:"supplier_id"`
	SupplierName     string               `json:"supplier_name"`
	TotalAmount      decimal.Decimal      `json:"total_amount"`
	OrderDate        time.Time            `json:"order_date"`
	PaymentTermsDays int                  `json:"payment_terms_days"`
	PaymentMethod    ledger.PaymentMethod `json:"payment_method"`
	LocationCode     string               `json:"location_code,omitempty"`
}

// NewPurchaseOrderApprovedEvent creates a new PurchaseOrderApprovedEvent
func NewPurchaseOrderApprovedEvent(order *PurchaseOrder) *PurchaseOrderApprovedEvent {
	return &PurchaseOrderApprovedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePurchaseOrderApproved, AggregateTypePurchaseOrder, order.ID),
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		SupplierID:       order.SupplierID,
		SupplierName:     order.SupplierName,
		TotalAmount:      order.TotalAmount.Amount(),
		OrderDate:        order.OrderDate,
		PaymentTermsDays: order.PaymentTermsDays,
		PaymentMethod:    order.PaymentMethod,
		LocationCode:     order.LocationCode,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderApprovedEvent) EventType() string {
	return EventTypePurchaseOrderApproved
}

// PurchaseOrderCancelledEvent is raised when a purchase order is cancelled
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
}

// NewPurchaseOrderCancelledEvent creates a new PurchaseOrderCancelledEvent
func NewPurchaseOrderCancelledEvent(order *PurchaseOrder, reason string) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderCancelledEvent) EventType() string {
	return EventTypePurchaseOrderCancelled
}
