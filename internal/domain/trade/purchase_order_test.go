package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftOrder(t *testing.T) *PurchaseOrder {
	t.Helper()
	order, err := NewPurchaseOrder("PO-2026-000007", uuid.New(), "Supplier Co",
		valueobject.NewMoneyFromFloat(1200), time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		30, ledger.MethodBankTransfer, "WH-EAST")
	require.NoError(t, err)
	return order
}

func TestNewPurchaseOrder_Validation(t *testing.T) {
	date := time.Now()

	tests := []struct {
		name    string
		mutate  func() (*PurchaseOrder, error)
		wantErr bool
	}{
		{"valid", func() (*PurchaseOrder, error) {
			return NewPurchaseOrder("PO-1", uuid.New(), "Supplier", valueobject.NewMoneyFromFloat(100), date, 30, ledger.MethodCash, "")
		}, false},
		{"empty number", func() (*PurchaseOrder, error) {
			return NewPurchaseOrder("", uuid.New(), "Supplier", valueobject.NewMoneyFromFloat(100), date, 30, ledger.MethodCash, "")
		}, true},
		{"nil supplier", func() (*PurchaseOrder, error) {
			return NewPurchaseOrder("PO-1", uuid.Nil, "Supplier", valueobject.NewMoneyFromFloat(100), date, 30, ledger.MethodCash, "")
		}, true},
		{"zero total", func() (*PurchaseOrder, error) {
			return NewPurchaseOrder("PO-1", uuid.New(), "Supplier", valueobject.ZeroMoney(), date, 30, ledger.MethodCash, "")
		}, true},
		{"negative terms", func() (*PurchaseOrder, error) {
			return NewPurchaseOrder("PO-1", uuid.New(), "Supplier", valueobject.NewMoneyFromFloat(100), date, -1, ledger.MethodCash, "")
		}, true},
		{"bad method", func() (*PurchaseOrder, error) {
			return NewPurchaseOrder("PO-1", uuid.New(), "Supplier", valueobject.NewMoneyFromFloat(100), date, 30, ledger.PaymentMethod("IOU"), "")
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.mutate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPurchaseOrder_Approve(t *testing.T) {
	order := newDraftOrder(t)

	require.NoError(t, order.Approve())
	assert.Equal(t, OrderStatusApproved, order.Status)
	require.NotNil(t, order.ApprovedAt)

	events := order.GetDomainEvents()
	require.Len(t, events, 1)
	approved, ok := events[0].(*PurchaseOrderApprovedEvent)
	require.True(t, ok)
	assert.Equal(t, order.ID, approved.OrderID)
	assert.Equal(t, "PO-2026-000007", approved.OrderNumber)
	assert.Equal(t, ledger.MethodBankTransfer, approved.PaymentMethod)
	assert.Equal(t, "WH-EAST", approved.LocationCode)

	assert.Error(t, order.Approve(), "approve is not repeatable")
}

func TestPurchaseOrder_Cancel(t *testing.T) {
	order := newDraftOrder(t)
	require.NoError(t, order.Approve())
	order.ClearDomainEvents()

	require.NoError(t, order.Cancel("supplier out of stock"))
	assert.Equal(t, OrderStatusCancelled, order.Status)

	events := order.GetDomainEvents()
	require.Len(t, events, 1)
	cancelled, ok := events[0].(*PurchaseOrderCancelledEvent)
	require.True(t, ok)
	assert.Equal(t, "supplier out of stock", cancelled.Reason)

	assert.Error(t, order.Cancel("again"))
}

func TestPurchaseOrder_DueDate(t *testing.T) {
	order := newDraftOrder(t)
	assert.Equal(t, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), order.DueDate())
}

func TestNewPurchaseOrder_DefaultPaymentTerms(t *testing.T) {
	orderDate := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	order, err := NewPurchaseOrder("PO-2026-000008", uuid.New(), "Supplier Co",
		valueobject.NewMoneyFromFloat(500), orderDate, 0, ledger.MethodBankTransfer, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultPaymentTermsDays, order.PaymentTermsDays)
	assert.Equal(t, orderDate.AddDate(0, 0, DefaultPaymentTermsDays), order.DueDate())
}
