package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/logistics-erp/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPurchaseOrderRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()

	order, err := trade.NewPurchaseOrder(
		"PO-2026-000010", uuid.New(), "Apex Logistics GmbH",
		valueobject.NewMoneyFromFloat(1500),
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		30, ledger.MethodBankTransfer, "LOC-01",
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-000010", found.OrderNumber)
	assert.Equal(t, trade.OrderStatusDraft, found.Status)
	assert.True(t, found.TotalAmount.Equals(order.TotalAmount))
	assert.Equal(t, "LOC-01", found.LocationCode)

	require.NoError(t, found.Approve())
	found.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, found))

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusApproved, reloaded.Status)
	assert.NotNil(t, reloaded.ApprovedAt)
}

func TestGormPurchaseOrderRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
