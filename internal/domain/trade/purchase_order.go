package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
)

// OrderStatus is the lifecycle state of a purchase order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusApproved  OrderStatus = "APPROVED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// DefaultPaymentTermsDays is the due-date offset used when an order carries
// no payment terms.
const DefaultPaymentTermsDays = 30

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	return s == OrderStatusDraft || s == OrderStatusApproved || s == OrderStatusCancelled
}

// PurchaseOrder is the upstream commitment to a supplier. The ledger side
// cares about it only as the source of a payable: approval spawns one,
// cancellation cascades to it.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber      string               `json:"order_number"`
	SupplierID       uuid.UUID            `json:"supplier_id"`
	SupplierName     string               `json:"supplier_name"`
	TotalAmount      valueobject.Money    `json:"total_amount"`
	OrderDate        time.Time            `json:"order_date"`
	PaymentTermsDays int                  `json:"payment_terms_days"`
	PaymentMethod    ledger.PaymentMethod `json:"payment_method"`
	LocationCode     string               `json:"location_code,omitempty"`
	Status           OrderStatus          `json:"status"`
	ApprovedAt       *time.Time           `json:"approved_at,omitempty"`
	CancelledAt      *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason     string               `json:"cancel_reason,omitempty"`
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, supplierName string, total valueobject.Money, orderDate time.Time, paymentTermsDays int, paymentMethod ledger.PaymentMethod, locationCode string) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Order number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Supplier name cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Total amount must be positive")
	}
	if paymentTermsDays < 0 {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Payment terms days cannot be negative")
	}
	if paymentTermsDays == 0 {
		paymentTermsDays = DefaultPaymentTermsDays
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Payment method %q is not valid", paymentMethod))
	}

	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		TotalAmount:       total,
		OrderDate:         orderDate,
		PaymentTermsDays:  paymentTermsDays,
		PaymentMethod:     paymentMethod,
		LocationCode:      locationCode,
		Status:            OrderStatusDraft,
	}, nil
}

// Approve moves a draft order into the approved state and raises the event
// that triggers payable creation
func (o *PurchaseOrder) Approve() error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Cannot approve order in %s status", o.Status))
	}
	now := time.Now()
	o.Status = OrderStatusApproved
	o.ApprovedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderApprovedEvent(o))
	return nil
}

// Cancel cancels an order. The attached payable follows via the cancellation
// cascade, not through this aggregate.
func (o *PurchaseOrder) Cancel(reason string) error {
	if o.Status == OrderStatusCancelled {
		return shared.NewDomainError(shared.ErrCodeValidation, "Order is already cancelled")
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrCodeValidation, "Cancel reason is required")
	}
	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o, reason))
	return nil
}

// DueDate derives the payable due date from the order date and terms
func (o *PurchaseOrder) DueDate() time.Time {
	return o.OrderDate.AddDate(0, 0, o.PaymentTermsDays)
}
