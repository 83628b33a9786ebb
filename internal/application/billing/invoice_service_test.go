package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockInvoiceRepository is a mock implementation of invoice.Repository
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

// MockRuleRepository is a mock implementation of billing.RuleRepository
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

// MockPerformanceRecordRepository is a mock implementation of billing.PerformanceRecordRepository
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

// MockSequenceRepository is a mock implementation of ledger.SequenceRepository
type MockSequenceRepository struct {
	mock.Mock
}

func (m *MockSequenceRepository) Next(ctx context.Context, prefix string, year int) (int64, error) {
	args := m.Called(ctx, prefix, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// passthroughTx runs the unit of work without a real transaction
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type invoiceServiceFixture struct {
	invoiceRepo *MockInvoiceRepository
	ruleRepo    *MockRuleRepository
	recordRepo  *MockPerformanceRecordRepository
	seqRepo     *MockSequenceRepository
	publisher   *MockEventPublisher
	service     *InvoiceService
}

func newInvoiceServiceFixture() *invoiceServiceFixture {
	f := &invoiceServiceFixture{
		invoiceRepo: new(MockInvoiceRepository),
		ruleRepo:    new(MockRuleRepository),
		recordRepo:  new(MockPerformanceRecordRepository),
		seqRepo:     new(MockSequenceRepository),
		publisher:   new(MockEventPublisher),
	}
	f.service = NewInvoiceService(f.invoiceRepo, f.ruleRepo, f.recordRepo, f.seqRepo,
		passthroughTx{}, f.publisher, decimal.NewFromFloat(0.1), 30, zap.NewNop())
	return f
}

func unitCountRule(t *testing.T, projectID uuid.UUID) *billing.Rule {
	t.Helper()
	rule, err := billing.NewRule(projectID, "Handling F100", billing.RuleTypeUnitCount,
		billing.GroupByPartNo, billing.PriceSourceFixed,
		billing.RuleConfig{UnitCount: &billing.UnitCountConfig{UnitPrice: decimal.NewFromFloat(0.14)}}, 10)
	require.NoError(t, err)
	return rule
}

func shipmentRecord(t *testing.T, projectID uuid.UUID, partNo string, qty int64) *billing.Shipment {
	t.Helper()
	s, err := billing.NewShipment(projectID, time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC), partNo, decimal.NewFromInt(qty), "", 0)
	require.NoError(t, err)
	return s
}

func candidateLines(t *testing.T, projectID uuid.UUID) []billing.LineCandidate {
	t.Helper()
	rule := unitCountRule(t, projectID)
	records := []billing.PerformanceRecord{
		shipmentRecord(t, projectID, "F100", 300),
		shipmentRecord(t, projectID, "F100", 262),
	}
	lines := billing.GenerateLines([]billing.Rule{*rule}, records)
	require.Len(t, lines, 1)
	return lines
}

func TestInvoiceService_Preview(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	projectID := uuid.New()

	rule := unitCountRule(t, projectID)
	records := []billing.PerformanceRecord{
		shipmentRecord(t, projectID, "F100", 300),
		shipmentRecord(t, projectID, "F100", 262),
	}

	f.ruleRepo.On("FindActiveForPeriod", ctx, projectID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return([]billing.Rule{*rule}, nil)
	f.recordRepo.On("FindUnbilled", ctx, projectID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(records, nil)

	result, err := f.service.Preview(ctx, projectID, "2026-07")
	require.NoError(t, err)

	require.Len(t, result.Lines, 1)
	assert.True(t, result.Lines[0].Quantity.Equal(decimal.NewFromInt(562)))
	assert.True(t, result.Subtotal.Equal(decimal.NewFromFloat(78.68)))
	assert.True(t, result.Tax.Equal(decimal.NewFromFloat(7.87)), "tax rounded to 2 places")
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromFloat(86.55)))
	assert.Equal(t, 2, result.RecordCount)

	// Preview is read-only.
	f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.recordRepo.AssertNotCalled(t, "MarkInvoiced", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Preview_RejectsBadPeriod(t *testing.T) {
	f := newInvoiceServiceFixture()

	_, err := f.service.Preview(context.Background(), uuid.New(), "2026-13")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrCodeValidation, domainErr.Code)
}

func TestInvoiceService_Generate(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	projectID := uuid.New()
	lines := candidateLines(t, projectID)

	f.invoiceRepo.On("FindByPeriod", ctx, projectID, "2026-07").Return(nil, shared.ErrNotFound)
	f.seqRepo.On("Next", ctx, "INV", 2026).Return(int64(1), nil)
	f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*invoice.Invoice")).Return(nil)
	f.recordRepo.On("MarkInvoiced", ctx, mock.AnythingOfType("[]uuid.UUID"), mock.AnythingOfType("uuid.UUID")).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	inv, err := f.service.Generate(ctx, GenerateRequest{
		ProjectID:    projectID,
		CustomerID:   uuid.New(),
		CustomerName: "Acme Logistics",
		PeriodMonth:  "2026-07",
		Lines:        lines,
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-000001", inv.InvoiceNumber)
	assert.Equal(t, invoice.StatusDraft, inv.Status)
	assert.Equal(t, 30, inv.PaymentTermsDays)
	require.NoError(t, inv.CheckTotals())

	// The records every line consumed are linked atomically with the save.
	markCall := f.recordRepo.Calls[len(f.recordRepo.Calls)-1]
	assert.ElementsMatch(t, inv.SourceRecordIDs(), markCall.Arguments.Get(1).([]uuid.UUID))
	assert.Equal(t, inv.ID, markCall.Arguments.Get(2).(uuid.UUID))
}

func TestInvoiceService_Generate_DuplicatePeriod(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	projectID := uuid.New()
	lines := candidateLines(t, projectID)

	existing, err := invoice.NewInvoice("INV-2026-000001", projectID, uuid.New(), "Acme Logistics",
		"2026-07", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(0.1), 30, lines)
	require.NoError(t, err)

	f.invoiceRepo.On("FindByPeriod", ctx, projectID, "2026-07").Return(existing, nil)

	_, err = f.service.Generate(ctx, GenerateRequest{
		ProjectID:    projectID,
		CustomerID:   uuid.New(),
		CustomerName: "Acme Logistics",
		PeriodMonth:  "2026-07",
		Lines:        lines,
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrCodeDuplicatePeriod, domainErr.Code)
	f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_Generate_LostRaceSurfacesDuplicatePeriod(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	projectID := uuid.New()
	lines := candidateLines(t, projectID)

	f.invoiceRepo.On("FindByPeriod", ctx, projectID, "2026-07").Return(nil, shared.ErrNotFound)
	f.seqRepo.On("Next", ctx, "INV", 2026).Return(int64(2), nil)
	f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*invoice.Invoice")).Return(shared.ErrAlreadyExists)

	_, err := f.service.Generate(ctx, GenerateRequest{
		ProjectID:    projectID,
		CustomerID:   uuid.New(),
		CustomerName: "Acme Logistics",
		PeriodMonth:  "2026-07",
		Lines:        lines,
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrCodeDuplicatePeriod, domainErr.Code)
	f.recordRepo.AssertNotCalled(t, "MarkInvoiced", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Approve_PublishesEvent(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	projectID := uuid.New()
	lines := candidateLines(t, projectID)
	approver := uuid.New()

	inv, err := invoice.NewInvoice("INV-2026-000001", projectID, uuid.New(), "Acme Logistics",
		"2026-07", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(0.1), 30, lines)
	require.NoError(t, err)
	inv.ClearDomainEvents()

	f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
	f.invoiceRepo.On("Save", ctx, inv).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	updated, err := f.service.Approve(ctx, inv.ID, approver)
	require.NoError(t, err)

	assert.Equal(t, invoice.StatusApproved, updated.Status)
	require.NotNil(t, updated.ApprovedBy)
	assert.Equal(t, approver, *updated.ApprovedBy)

	published := f.publisher.Calls[0].Arguments.Get(1).([]shared.DomainEvent)
	require.Len(t, published, 1)
	approvedEvent, ok := published[0].(*invoice.InvoiceApprovedEvent)
	require.True(t, ok)
	assert.Equal(t, inv.ID, approvedEvent.InvoiceID)
	assert.True(t, approvedEvent.TotalAmount.Equal(inv.TotalAmount))
}

func TestInvoiceService_Approve_PublishFailureDoesNotBlock(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	projectID := uuid.New()
	lines := candidateLines(t, projectID)

	inv, err := invoice.NewInvoice("INV-2026-000001", projectID, uuid.New(), "Acme Logistics",
		"2026-07", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(0.1), 30, lines)
	require.NoError(t, err)
	inv.ClearDomainEvents()

	f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
	f.invoiceRepo.On("Save", ctx, inv).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(assert.AnError)

	updated, err := f.service.Approve(ctx, inv.ID, uuid.New())
	require.NoError(t, err, "downstream bookkeeping failure never blocks approval")
	assert.Equal(t, invoice.StatusApproved, updated.Status)
}

func TestInvoiceService_Delete_UnlinksRecords(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	projectID := uuid.New()
	lines := candidateLines(t, projectID)

	inv, err := invoice.NewInvoice("INV-2026-000001", projectID, uuid.New(), "Acme Logistics",
		"2026-07", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(0.1), 30, lines)
	require.NoError(t, err)

	f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
	f.recordRepo.On("UnlinkByInvoice", ctx, inv.ID).Return(nil)
	f.invoiceRepo.On("Delete", ctx, inv.ID).Return(nil)

	require.NoError(t, f.service.Delete(ctx, inv.ID))
	f.recordRepo.AssertExpectations(t)
	f.invoiceRepo.AssertExpectations(t)
}

func TestInvoiceService_Delete_RejectsApprovedInvoice(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	projectID := uuid.New()
	lines := candidateLines(t, projectID)

	inv, err := invoice.NewInvoice("INV-2026-000001", projectID, uuid.New(), "Acme Logistics",
		"2026-07", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromFloat(0.1), 30, lines)
	require.NoError(t, err)
	require.NoError(t, inv.Approve(uuid.New()))

	f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)

	err = f.service.Delete(ctx, inv.ID)
	require.Error(t, err)
	f.invoiceRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.recordRepo.AssertNotCalled(t, "UnlinkByInvoice", mock.Anything, mock.Anything)
}
