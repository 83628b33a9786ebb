package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/logistics-erp/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PurchaseOrderService owns the write side of purchase orders. Approval and
// cancellation publish the events the ledger listens for; the payable itself
// is never touched from here.
type PurchaseOrderService struct {
	orderRepo      trade.PurchaseOrderRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPurchaseOrderService creates a new purchase order service
func NewPurchaseOrderService(
	orderRepo trade.PurchaseOrderRepository,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo:      orderRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// CreateRequest carries the inputs of a new draft purchase order
type CreateRequest struct {
	OrderNumber      string
	SupplierID       uuid.UUID
	SupplierName     string
	TotalAmount      valueobject.Money
	OrderDate        time.Time
	PaymentTermsDays int
	PaymentMethod    ledger.PaymentMethod
	LocationCode     string
}

// Create persists a new draft purchase order
func (s *PurchaseOrderService) Create(ctx context.Context, req CreateRequest) (*trade.PurchaseOrder, error) {
	order, err := trade.NewPurchaseOrder(
		req.OrderNumber,
		req.SupplierID,
		req.SupplierName,
		req.TotalAmount,
		req.OrderDate,
		req.PaymentTermsDays,
		req.PaymentMethod,
		req.LocationCode,
	)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save purchase order: %w", err)
	}

	s.logger.Info("purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)
	return order, nil
}

// Approve moves the order to approved and publishes the approval event.
// The payable is created by an event handler; its failure never rolls the
// approval back.
func (s *PurchaseOrderService) Approve(ctx context.Context, orderID uuid.UUID) (*trade.PurchaseOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.Approve(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save approved purchase order: %w", err)
	}

	s.publishEvents(ctx, order)

	s.logger.Info("purchase order approved",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)
	return order, nil
}

// Cancel cancels the order and publishes the cancellation event that drives
// the ledger cascade.
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*trade.PurchaseOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save cancelled purchase order: %w", err)
	}

	s.publishEvents(ctx, order)

	s.logger.Info("purchase order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("reason", reason),
	)
	return order, nil
}

// Get returns the purchase order by ID
func (s *PurchaseOrderService) Get(ctx context.Context, orderID uuid.UUID) (*trade.PurchaseOrder, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *PurchaseOrderService) publishEvents(ctx context.Context, order *trade.PurchaseOrder) {
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish purchase order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
	order.ClearDomainEvents()
}
