package ledger

import (
	"context"
	"fmt"

	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/logistics-erp/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseOrderApprovedHandler creates the payable side when a purchase order
// is approved. Auto-creation is best-effort: the handler never returns the
// creation failure, the service records it as a reconciliation task.
type PurchaseOrderApprovedHandler struct {
	autoCreate *AutoCreateService
	logger     *zap.Logger
}

// NewPurchaseOrderApprovedHandler creates a new handler for purchase order approvals
func NewPurchaseOrderApprovedHandler(autoCreate *AutoCreateService, logger *zap.Logger) *PurchaseOrderApprovedHandler {
	return &PurchaseOrderApprovedHandler{autoCreate: autoCreate, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PurchaseOrderApprovedHandler) EventTypes() []string {
	return []string{trade.EventTypePurchaseOrderApproved}
}

// Handle processes a PurchaseOrderApprovedEvent by ensuring the payable exists
func (h *PurchaseOrderApprovedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	approved, ok := event.(*trade.PurchaseOrderApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypePurchaseOrderApproved, event.EventType())
	}

	h.logger.Info("processing purchase order approval for payable creation",
		zap.String("order_id", approved.OrderID.String()),
		zap.String("order_number", approved.OrderNumber),
		zap.String("supplier_name", approved.SupplierName),
	)

	due := approved.OrderDate.AddDate(0, 0, approved.PaymentTermsDays)
	h.autoCreate.EnsureBestEffort(ctx, SourceDocument{
		Kind:          ledger.KindPayable,
		SourceType:    ledger.SourceTypePurchaseOrder,
		SourceID:      approved.OrderID,
		SourceNumber:  approved.OrderNumber,
		PartyID:       approved.SupplierID,
		PartyName:     approved.SupplierName,
		Total:         valueobject.NewMoney(approved.TotalAmount),
		DueDate:       &due,
		PaymentMethod: approved.PaymentMethod,
		LocationCode:  approved.LocationCode,
	})

	return nil
}

// InvoiceApprovedHandler creates the receivable side when an invoice is
// approved, on the same best-effort contract as the payable path
type InvoiceApprovedHandler struct {
	autoCreate *AutoCreateService
	logger     *zap.Logger
}

// NewInvoiceApprovedHandler creates a new handler for invoice approvals
func NewInvoiceApprovedHandler(autoCreate *AutoCreateService, logger *zap.Logger) *InvoiceApprovedHandler {
	return &InvoiceApprovedHandler{autoCreate: autoCreate, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceApprovedHandler) EventTypes() []string {
	return []string{invoice.EventTypeInvoiceApproved}
}

// Handle processes an InvoiceApprovedEvent by ensuring the receivable exists
func (h *InvoiceApprovedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	approved, ok := event.(*invoice.InvoiceApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			invoice.EventTypeInvoiceApproved, event.EventType())
	}
	if approved.TotalAmount.LessThanOrEqual(decimal.Zero) {
		h.logger.Warn("skipping receivable creation for non-positive invoice total",
			zap.String("invoice_id", approved.InvoiceID.String()),
			zap.String("total_amount", approved.TotalAmount.String()))
		return nil
	}

	h.logger.Info("processing invoice approval for receivable creation",
		zap.String("invoice_id", approved.InvoiceID.String()),
		zap.String("invoice_number", approved.InvoiceNumber),
		zap.String("customer_name", approved.CustomerName),
	)

	h.autoCreate.EnsureBestEffort(ctx, SourceDocument{
		Kind:         ledger.KindReceivable,
		SourceType:   ledger.SourceTypeInvoice,
		SourceID:     approved.InvoiceID,
		SourceNumber: approved.InvoiceNumber,
		PartyID:      approved.CustomerID,
		PartyName:    approved.CustomerName,
		Total:        valueobject.NewMoney(approved.TotalAmount),
		DueDate:      approved.DueDate,
	})

	return nil
}

// SourceCancelledHandler cancels the ledger document spawned by a cancelled
// source document. Auto-paid documents follow their source through the
// force-cancel carve-out.
type SourceCancelledHandler struct {
	payments *PaymentService
	logger   *zap.Logger
}

// NewSourceCancelledHandler creates a new cancellation cascade handler
func NewSourceCancelledHandler(payments *PaymentService, logger *zap.Logger) *SourceCancelledHandler {
	return &SourceCancelledHandler{payments: payments, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SourceCancelledHandler) EventTypes() []string {
	return []string{trade.EventTypePurchaseOrderCancelled, invoice.EventTypeInvoiceCancelled}
}

// Handle cascades a source-document cancellation into the ledger
func (h *SourceCancelledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.PurchaseOrderCancelledEvent:
		return h.payments.CascadeCancel(ctx, e.OrderID,
			fmt.Sprintf("Purchase order %s cancelled: %s", e.OrderNumber, e.Reason))
	case *invoice.InvoiceCancelledEvent:
		return h.payments.CascadeCancel(ctx, e.InvoiceID,
			fmt.Sprintf("Invoice %s cancelled: %s", e.InvoiceNumber, e.Reason))
	default:
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}
}

// Compile-time handler checks
var (
	_ shared.EventHandler = (*PurchaseOrderApprovedHandler)(nil)
	_ shared.EventHandler = (*InvoiceApprovedHandler)(nil)
	_ shared.EventHandler = (*SourceCancelledHandler)(nil)
)
