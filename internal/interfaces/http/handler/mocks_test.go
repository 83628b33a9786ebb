package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository implements invoice.Repository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByPeriod(ctx context.Context, projectID uuid.UUID, periodMonth string) (*invoice.Invoice, error) {
	args := m.Called(ctx, projectID, periodMonth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]invoice.Invoice, error) {
	args := m.Called(ctx, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, projectID uuid.UUID) (int64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(int64), args.Error(1)
}

var _ invoice.Repository = (*MockInvoiceRepository)(nil)

// MockRuleRepository implements billing.RuleRepository for testing
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Rule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Rule), args.Error(1)
}

func (m *MockRuleRepository) FindActiveForPeriod(ctx context.Context, projectID uuid.UUID, periodStart, periodEnd time.Time) ([]billing.Rule, error) {
	args := m.Called(ctx, projectID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Rule), args.Error(1)
}

func (m *MockRuleRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]billing.Rule, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Rule), args.Error(1)
}

func (m *MockRuleRepository) Save(ctx context.Context, rule *billing.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ billing.RuleRepository = (*MockRuleRepository)(nil)

// MockPerformanceRecordRepository implements billing.PerformanceRecordRepository for testing
type MockPerformanceRecordRepository struct {
	mock.Mock
}

func (m *MockPerformanceRecordRepository) FindUnbilled(ctx context.Context, projectID uuid.UUID, periodStart, periodEnd time.Time) ([]billing.PerformanceRecord, error) {
	args := m.Called(ctx, projectID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PerformanceRecord), args.Error(1)
}

func (m *MockPerformanceRecordRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]billing.PerformanceRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PerformanceRecord), args.Error(1)
}

func (m *MockPerformanceRecordRepository) SaveShipment(ctx context.Context, s *billing.Shipment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockPerformanceRecordRepository) SaveLaborEntry(ctx context.Context, l *billing.LaborEntry) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockPerformanceRecordRepository) MarkInvoiced(ctx context.Context, recordIDs []uuid.UUID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, recordIDs, invoiceID)
	return args.Error(0)
}

func (m *MockPerformanceRecordRepository) UnlinkByInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

var _ billing.PerformanceRecordRepository = (*MockPerformanceRecordRepository)(nil)

// MockDocumentRepository implements ledger.DocumentRepository for testing
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindBySource(ctx context.Context, sourceID uuid.UUID) (*ledger.Document, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context, filter ledger.DocumentFilter) ([]ledger.Document, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Document), args.Error(1)
}

func (m *MockDocumentRepository) Count(ctx context.Context, filter ledger.DocumentFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *ledger.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ ledger.DocumentRepository = (*MockDocumentRepository)(nil)

// MockSequenceRepository implements ledger.SequenceRepository for testing
type MockSequenceRepository struct {
	mock.Mock
}

func (m *MockSequenceRepository) Next(ctx context.Context, prefix string, year int) (int64, error) {
	args := m.Called(ctx, prefix, year)
	return args.Get(0).(int64), args.Error(1)
}

var _ ledger.SequenceRepository = (*MockSequenceRepository)(nil)

// MockReconciliationTaskRepository implements ledger.ReconciliationTaskRepository for testing
type MockReconciliationTaskRepository struct {
	mock.Mock
}

func (m *MockReconciliationTaskRepository) Save(ctx context.Context, task *ledger.ReconciliationTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockReconciliationTaskRepository) FindOpen(ctx context.Context, limit int) ([]ledger.ReconciliationTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.ReconciliationTask), args.Error(1)
}

func (m *MockReconciliationTaskRepository) FindBySource(ctx context.Context, sourceID uuid.UUID) (*ledger.ReconciliationTask, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ReconciliationTask), args.Error(1)
}

var _ ledger.ReconciliationTaskRepository = (*MockReconciliationTaskRepository)(nil)

// MockPurchaseOrderRepository implements trade.PurchaseOrderRepository for testing
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

var _ trade.PurchaseOrderRepository = (*MockPurchaseOrderRepository)(nil)

// MockEventPublisher implements shared.EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

var _ shared.EventPublisher = (*MockEventPublisher)(nil)

// passthroughTx runs the unit of work without a real transaction
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ shared.TransactionManager = passthroughTx{}
