package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	billingapp "github.com/logistics-erp/backend/internal/application/billing"
	ledgerapp "github.com/logistics-erp/backend/internal/application/ledger"
	tradeapp "github.com/logistics-erp/backend/internal/application/trade"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/logistics-erp/backend/internal/infrastructure/event"
	"github.com/logistics-erp/backend/internal/infrastructure/persistence"
	"github.com/logistics-erp/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires real repositories, the in-memory event bus and the
// application services over an in-memory SQLite database, mirroring the
// composition in cmd/server.
type testEnv struct {
	invoiceSvc *billingapp.InvoiceService
	paymentSvc *ledgerapp.PaymentService
	autoCreate *ledgerapp.AutoCreateService
	orderSvc   *tradeapp.PurchaseOrderService

	ruleRepo   billing.RuleRepository
	recordRepo billing.PerformanceRecordRepository
	docRepo    ledger.DocumentRepository
	taskRepo   ledger.ReconciliationTaskRepository
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.BillingRuleModel{},
		&models.ShipmentModel{},
		&models.LaborEntryModel{},
		&models.InvoiceModel{},
		&models.InvoiceLineModel{},
		&models.LedgerDocumentModel{},
		&models.DocumentSequenceModel{},
		&models.ReconciliationTaskModel{},
		&models.PurchaseOrderModel{},
	))

	log := zap.NewNop()
	ruleRepo := persistence.NewGormRuleRepository(db)
	recordRepo := persistence.NewGormPerformanceRecordRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	docRepo := persistence.NewGormLedgerDocumentRepository(db)
	sequenceRepo := persistence.NewGormSequenceRepository(db)
	taskRepo := persistence.NewGormReconciliationTaskRepository(db)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db)
	txManager := persistence.NewGormTransactionManager(db)

	bus := event.NewInMemoryEventBus(log)

	invoiceSvc := billingapp.NewInvoiceService(
		invoiceRepo, ruleRepo, recordRepo, sequenceRepo, txManager, bus,
		decimal.RequireFromString("0.1"), 30, log)
	paymentSvc := ledgerapp.NewPaymentService(docRepo, bus, log)
	autoCreate := ledgerapp.NewAutoCreateService(
		docRepo, sequenceRepo, taskRepo, orderRepo, invoiceRepo, bus, log)
	orderSvc := tradeapp.NewPurchaseOrderService(orderRepo, bus, log)

	bus.Subscribe(ledgerapp.NewPurchaseOrderApprovedHandler(autoCreate, log))
	bus.Subscribe(ledgerapp.NewInvoiceApprovedHandler(autoCreate, log))
	bus.Subscribe(ledgerapp.NewSourceCancelledHandler(paymentSvc, log))

	return &testEnv{
		invoiceSvc: invoiceSvc,
		paymentSvc: paymentSvc,
		autoCreate: autoCreate,
		orderSvc:   orderSvc,
		ruleRepo:   ruleRepo,
		recordRepo: recordRepo,
		docRepo:    docRepo,
		taskRepo:   taskRepo,
	}
}

func documentNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, time.Now().UTC().Year(), seq)
}

// Full receivable lifecycle: billed records → preview → generate → approve →
// auto-created receivable → payments through to settled.
func TestInvoiceToReceivableFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	projectID := uuid.New()
	customerID := uuid.New()

	rule, err := billing.NewRule(projectID, "Unit handling", billing.RuleTypeUnitCount,
		billing.GroupByPartNo, billing.PriceSourceFixed,
		billing.RuleConfig{UnitCount: &billing.UnitCountConfig{
			UnitPrice: decimal.RequireFromString("0.25"),
			Unit:      "pcs",
		}}, 0)
	require.NoError(t, err)
	require.NoError(t, env.ruleRepo.Save(ctx, rule))

	for _, s := range []struct {
		partNo string
		qty    int64
	}{
		{"A100", 100},
		{"B200", 60},
	} {
		shipment, err := billing.NewShipment(projectID,
			time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC),
			s.partNo, decimal.NewFromInt(s.qty), "", 0)
		require.NoError(t, err)
		require.NoError(t, env.recordRepo.SaveShipment(ctx, shipment))
	}

	preview, err := env.invoiceSvc.Preview(ctx, projectID, "2026-07")
	require.NoError(t, err)
	require.Len(t, preview.Lines, 2)
	assert.Equal(t, 2, preview.RecordCount)
	assert.True(t, preview.Subtotal.Equal(decimal.NewFromInt(40)),
		"subtotal = %s", preview.Subtotal)

	inv, err := env.invoiceSvc.Generate(ctx, billingapp.GenerateRequest{
		ProjectID:    projectID,
		CustomerID:   customerID,
		CustomerName: "Globex Logistics",
		PeriodMonth:  "2026-07",
		Lines:        preview.Lines,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-000001", inv.InvoiceNumber)
	assert.Equal(t, invoice.StatusDraft, inv.Status)
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(44)),
		"total = %s", inv.TotalAmount)

	// generation consumed the records
	unbilled, err := env.recordRepo.FindUnbilled(ctx, projectID,
		inv.PeriodStart, inv.PeriodEnd)
	require.NoError(t, err)
	assert.Empty(t, unbilled)

	approved, err := env.invoiceSvc.Approve(ctx, inv.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusApproved, approved.Status)

	// approval event spawned the receivable
	doc, err := env.docRepo.FindBySource(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindReceivable, doc.Kind)
	assert.Equal(t, documentNumber("AR", 1), doc.DocumentNumber)
	assert.Equal(t, "Globex Logistics", doc.PartyName)
	assert.True(t, doc.TotalAmount.Equal(decimal.NewFromInt(44)))
	assert.Equal(t, ledger.StatusPending, doc.Status)

	// approving again spawns nothing new
	_, err = env.invoiceSvc.Approve(ctx, inv.ID, uuid.New())
	require.Error(t, err)

	partial, err := env.paymentSvc.ApplyPayment(ctx, doc.ID, ledgerapp.PaymentRequest{
		Amount: valueobject.NewMoney(decimal.NewFromInt(20)),
		Method: ledger.MethodBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPartial, partial.Status)
	assert.True(t, partial.Outstanding.Equal(decimal.NewFromInt(24)))

	settled, err := env.paymentSvc.ApplyPayment(ctx, doc.ID, ledgerapp.PaymentRequest{
		Amount: valueobject.NewMoney(decimal.NewFromInt(24)),
		Method: ledger.MethodBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPaid, settled.Status)
	assert.True(t, settled.Outstanding.IsZero())
}

// Duplicate generation for the same project and period is rejected by the
// unique index regardless of what the service finds first.
func TestInvoiceFlow_DuplicatePeriod(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	projectID := uuid.New()

	lines := []billing.LineCandidate{
		billing.NewLineCandidate("Monthly base fee", decimal.NewFromInt(1), "month",
			decimal.NewFromInt(500), billing.GroupByNone, "", uuid.Nil, nil),
	}

	_, err := env.invoiceSvc.Generate(ctx, billingapp.GenerateRequest{
		ProjectID:    projectID,
		CustomerID:   uuid.New(),
		CustomerName: "Globex Logistics",
		PeriodMonth:  "2026-07",
		Lines:        lines,
	})
	require.NoError(t, err)

	_, err = env.invoiceSvc.Generate(ctx, billingapp.GenerateRequest{
		ProjectID:    projectID,
		CustomerID:   uuid.New(),
		CustomerName: "Globex Logistics",
		PeriodMonth:  "2026-07",
		Lines:        lines,
	})
	require.Error(t, err)
}

// A bank-transfer purchase order spawns an open payable on approval and the
// cancellation cascade closes it.
func TestPurchaseOrderToPayableFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.Create(ctx, tradeapp.CreateRequest{
		OrderNumber:      "PO-2026-000042",
		SupplierID:       uuid.New(),
		SupplierName:     "Acme Industrial",
		TotalAmount:      valueobject.NewMoney(decimal.NewFromInt(1500)),
		OrderDate:        time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		PaymentTermsDays: 30,
		PaymentMethod:    ledger.MethodBankTransfer,
		LocationCode:     "WH-EAST",
	})
	require.NoError(t, err)

	_, err = env.orderSvc.Approve(ctx, order.ID)
	require.NoError(t, err)

	doc, err := env.docRepo.FindBySource(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindPayable, doc.Kind)
	assert.Equal(t, documentNumber("AP", 1), doc.DocumentNumber)
	assert.Equal(t, ledger.StatusPending, doc.Status)
	assert.Equal(t, "WH-EAST", doc.LocationCode)
	require.NotNil(t, doc.DueDate)
	assert.Equal(t, time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC), doc.DueDate.UTC())

	_, err = env.orderSvc.Cancel(ctx, order.ID, "supplier discontinued the part")
	require.NoError(t, err)

	doc, err = env.docRepo.FindBySource(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCancelled, doc.Status)
}

// A credit-card purchase order is charged at order time: its payable is born
// settled with the synthetic card entry, and cancellation still closes it.
func TestCreditCardPayableBornSettled(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	order, err := env.orderSvc.Create(ctx, tradeapp.CreateRequest{
		OrderNumber:      "PO-2026-000043",
		SupplierID:       uuid.New(),
		SupplierName:     "Acme Industrial",
		TotalAmount:      valueobject.NewMoney(decimal.NewFromInt(320)),
		OrderDate:        time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC),
		PaymentTermsDays: 0,
		PaymentMethod:    ledger.MethodCreditCard,
	})
	require.NoError(t, err)

	_, err = env.orderSvc.Approve(ctx, order.ID)
	require.NoError(t, err)

	doc, err := env.docRepo.FindBySource(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPaid, doc.Status)
	assert.Equal(t, ledger.PaymentStatusPaid, doc.PaymentStatus)
	assert.True(t, doc.Outstanding.IsZero())
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, ledger.MethodCreditCard, doc.Entries[0].Method)
	assert.Equal(t, "CC-PO-2026-000043", doc.Entries[0].Reference)

	// paid documents only fall to the cancellation cascade, never to a
	// regular cancel
	_, err = env.paymentSvc.Cancel(ctx, doc.ID, "manual")
	require.Error(t, err)

	_, err = env.orderSvc.Cancel(ctx, order.ID, "card charge reversed")
	require.NoError(t, err)

	doc, err = env.docRepo.FindBySource(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCancelled, doc.Status)
}

// Documents created before the location tag existed get exactly that field
// backfilled on the next Ensure call.
func TestEnsureRepairsMissingLocation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	sourceID := uuid.New()

	due := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	doc, err := ledger.NewDocument(ledger.KindPayable, documentNumber("AP", 1),
		uuid.New(), "Acme Industrial", ledger.SourceTypePurchaseOrder, sourceID,
		"PO-2026-000044", valueobject.NewMoney(decimal.NewFromInt(75)), &due)
	require.NoError(t, err)
	require.NoError(t, env.docRepo.Save(ctx, doc))

	repaired, err := env.autoCreate.Ensure(ctx, ledgerapp.SourceDocument{
		Kind:         ledger.KindPayable,
		SourceType:   ledger.SourceTypePurchaseOrder,
		SourceID:     sourceID,
		SourceNumber: "PO-2026-000044",
		PartyID:      doc.PartyID,
		PartyName:    "Acme Industrial",
		Total:        valueobject.NewMoney(decimal.NewFromInt(75)),
		DueDate:      &due,
		LocationCode: "WH-WEST",
	})
	require.NoError(t, err)
	assert.Equal(t, doc.ID, repaired.ID)
	assert.Equal(t, "WH-WEST", repaired.LocationCode)
	assert.Equal(t, doc.DocumentNumber, repaired.DocumentNumber)
	assert.True(t, repaired.TotalAmount.Equal(decimal.NewFromInt(75)))
}
