package trade

import (
	"context"

	"github.com/google/uuid"
)

// PurchaseOrderRepository persists purchase orders
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	Save(ctx context.Context, order *PurchaseOrder) error
}
