package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPartyID = uuid.MustParse("33333333-3333-3333-3333-333333333333")

func mustDocument(t *testing.T, total float64, dueDate *time.Time) *Document {
	t.Helper()
	doc, err := NewDocument(KindPayable, "AP-2026-000001", testPartyID, "Supplier Co",
		SourceTypePurchaseOrder, uuid.New(), "PO-2026-000007",
		valueobject.NewMoneyFromFloat(total), dueDate)
	require.NoError(t, err)
	doc.ClearDomainEvents()
	return doc
}

func entry(amount float64) PaymentEntry {
	return NewPaymentEntry(time.Now(), valueobject.NewMoneyFromFloat(amount), MethodBankTransfer, "TX-1")
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 30)

	tests := []struct {
		name        string
		total       float64
		paid        float64
		dueDate     *time.Time
		wantStatus  Status
		wantPayment PaymentStatus
	}{
		{"fully paid", 1000, 1000, &future, StatusPaid, PaymentStatusPaid},
		{"overpaid clamps to paid", 1000, 1001, &future, StatusPaid, PaymentStatusPaid},
		{"partially paid", 1000, 400, &future, StatusPartial, PaymentStatusPartial},
		{"partially paid past due", 1000, 400, &past, StatusPartial, PaymentStatusPartial},
		{"unpaid before due date", 1000, 0, &future, StatusPending, PaymentStatusUnpaid},
		{"unpaid past due date", 1000, 0, &past, StatusOverdue, PaymentStatusUnpaid},
		{"unpaid without due date", 1000, 0, nil, StatusPending, PaymentStatusUnpaid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, payment := DeriveStatus(decimal.NewFromFloat(tc.total), decimal.NewFromFloat(tc.paid), tc.dueDate, now)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantPayment, payment)
		})
	}
}

func TestNewDocument(t *testing.T) {
	due := time.Now().AddDate(0, 0, 30)
	doc, err := NewDocument(KindReceivable, "AR-2026-000001", testPartyID, "Acme Logistics",
		SourceTypeInvoice, uuid.New(), "INV-2026-000001",
		valueobject.NewMoneyFromFloat(5586.55), &due)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, doc.Status)
	assert.Equal(t, PaymentStatusUnpaid, doc.PaymentStatus)
	assert.True(t, doc.Outstanding.Equal(doc.TotalAmount))
	assert.True(t, doc.PaidAmount.IsZero())
	require.NoError(t, doc.CheckInvariants())

	events := doc.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeDocumentCreated, events[0].EventType())
}

func TestNewDocument_Validation(t *testing.T) {
	due := time.Now().AddDate(0, 0, 30)
	valid := func() (Kind, string, uuid.UUID, string, SourceType, uuid.UUID, string, valueobject.Money, *time.Time) {
		return KindPayable, "AP-2026-000001", testPartyID, "Supplier", SourceTypePurchaseOrder, uuid.New(), "PO-1", valueobject.NewMoneyFromFloat(100), &due
	}

	t.Run("valid", func(t *testing.T) {
		_, err := NewDocument(valid())
		assert.NoError(t, err)
	})
	t.Run("bad kind", func(t *testing.T) {
		_, num, party, name, st, src, srcNum, total, d := valid()
		_, err := NewDocument(Kind("NOPE"), num, party, name, st, src, srcNum, total, d)
		assert.Error(t, err)
	})
	t.Run("empty number", func(t *testing.T) {
		k, _, party, name, st, src, srcNum, total, d := valid()
		_, err := NewDocument(k, "", party, name, st, src, srcNum, total, d)
		assert.Error(t, err)
	})
	t.Run("nil source", func(t *testing.T) {
		k, num, party, name, st, _, srcNum, total, d := valid()
		_, err := NewDocument(k, num, party, name, st, uuid.Nil, srcNum, total, d)
		assert.Error(t, err)
	})
	t.Run("zero total", func(t *testing.T) {
		k, num, party, name, st, src, srcNum, _, d := valid()
		_, err := NewDocument(k, num, party, name, st, src, srcNum, valueobject.ZeroMoney(), d)
		assert.Error(t, err)
	})
}

func TestDocument_ApplyPayment(t *testing.T) {
	doc := mustDocument(t, 1000, nil)

	require.NoError(t, doc.ApplyPayment(entry(400)))
	assert.Equal(t, StatusPartial, doc.Status)
	assert.Equal(t, PaymentStatusPartial, doc.PaymentStatus)
	assert.True(t, doc.Outstanding.Equal(decimal.NewFromInt(600)))
	require.NoError(t, doc.CheckInvariants())

	require.NoError(t, doc.ApplyPayment(entry(600)))
	assert.Equal(t, StatusPaid, doc.Status)
	assert.Equal(t, PaymentStatusPaid, doc.PaymentStatus)
	assert.True(t, doc.Outstanding.IsZero())
	require.NotNil(t, doc.PaidAt)
	assert.Len(t, doc.Entries, 2)
	require.NoError(t, doc.CheckInvariants())
}

func TestDocument_ApplyPayment_Overpayment(t *testing.T) {
	// total=1000, paid=0, a 1200 payment is rejected and the document is unchanged
	doc := mustDocument(t, 1000, nil)

	err := doc.ApplyPayment(entry(1200))
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrCodeOverpayment, domainErr.Code)

	assert.True(t, doc.PaidAmount.IsZero())
	assert.Equal(t, StatusPending, doc.Status)
	assert.Empty(t, doc.Entries)
	require.NoError(t, doc.CheckInvariants())
}

func TestDocument_ApplyPayment_AlreadySettled(t *testing.T) {
	doc := mustDocument(t, 1000, nil)
	require.NoError(t, doc.ApplyPayment(entry(1000)))

	err := doc.ApplyPayment(entry(1))
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrCodeAlreadySettled, domainErr.Code)
}

func TestDocument_ApplyPayment_Validation(t *testing.T) {
	doc := mustDocument(t, 1000, nil)

	bad := entry(0)
	assert.Error(t, doc.ApplyPayment(bad), "zero amount")

	bad = entry(100)
	bad.Method = PaymentMethod("IOU")
	assert.Error(t, doc.ApplyPayment(bad), "unknown method")
}

func TestDocument_Cancel_RejectedWithPayments(t *testing.T) {
	doc := mustDocument(t, 1000, nil)
	require.NoError(t, doc.ApplyPayment(entry(50)))

	err := doc.Cancel("ordered by mistake")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrCodeHasPayments, domainErr.Code)
	assert.Equal(t, StatusPartial, doc.Status, "document unchanged")
}

func TestDocument_Cancel(t *testing.T) {
	doc := mustDocument(t, 1000, nil)

	require.NoError(t, doc.Cancel("ordered by mistake"))
	assert.Equal(t, StatusCancelled, doc.Status)
	assert.Equal(t, "ordered by mistake", doc.CancelReason)
	require.NotNil(t, doc.CancelledAt)

	assert.Error(t, doc.Cancel("again"))
	assert.Error(t, doc.ApplyPayment(entry(10)), "no payments after cancellation")
}

func TestDocument_ForceCancel_AllowsPayments(t *testing.T) {
	// The cascade carve-out: an auto-paid credit card document follows its
	// cancelled source document.
	doc := mustDocument(t, 1000, nil)
	require.NoError(t, doc.ApplyPayment(entry(1000)))

	require.NoError(t, doc.ForceCancel("source purchase order cancelled"))
	assert.Equal(t, StatusCancelled, doc.Status)
	assert.Contains(t, doc.Notes, "source purchase order cancelled")
}

func TestDocument_Refresh(t *testing.T) {
	past := time.Now().AddDate(0, 0, -10)
	doc := mustDocument(t, 1000, &past)

	doc.Refresh(time.Now())
	assert.Equal(t, StatusOverdue, doc.Status)

	require.NoError(t, doc.Cancel("stale"))
	doc.Refresh(time.Now())
	assert.Equal(t, StatusCancelled, doc.Status, "cancelled is never re-derived")
}

func TestDocument_RepairLocation(t *testing.T) {
	doc := mustDocument(t, 1000, nil)

	assert.True(t, doc.RepairLocation("WH-EAST"))
	assert.Equal(t, "WH-EAST", doc.LocationCode)

	assert.False(t, doc.RepairLocation("WH-WEST"), "repair never overwrites")
	assert.Equal(t, "WH-EAST", doc.LocationCode)
	assert.False(t, doc.RepairLocation(""))
}

func TestDocument_CheckInvariants(t *testing.T) {
	doc := mustDocument(t, 1000, nil)
	require.NoError(t, doc.ApplyPayment(entry(400)))

	doc.Outstanding = decimal.NewFromInt(999)
	assert.Error(t, doc.CheckInvariants())

	doc = mustDocument(t, 1000, nil)
	doc.PaidAmount = decimal.NewFromInt(100)
	doc.Outstanding = decimal.NewFromInt(900)
	assert.Error(t, doc.CheckInvariants(), "paid without entries diverges from entry sum")
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "AP-2026-000001", FormatDocumentNumber(PrefixPayable, 2026, 1))
	assert.Equal(t, "AR-2026-000123", FormatDocumentNumber(PrefixReceivable, 2026, 123))
	assert.Equal(t, "INV-2026-045678", FormatDocumentNumber(PrefixInvoice, 2026, 45678))
}

func TestNumberPrefix(t *testing.T) {
	assert.Equal(t, "AP", NumberPrefix(KindPayable))
	assert.Equal(t, "AR", NumberPrefix(KindReceivable))
}

func TestReconciliationTask(t *testing.T) {
	task := NewReconciliationTask(KindPayable, SourceTypePurchaseOrder, uuid.New(), "validation failed")
	assert.True(t, task.IsOpen())
	assert.Equal(t, 1, task.Attempts)

	task.RecordAttempt("still failing")
	assert.Equal(t, 2, task.Attempts)
	assert.Equal(t, "still failing", task.Reason)

	task.Resolve()
	assert.False(t, task.IsOpen())
	require.NotNil(t, task.ResolvedAt)
}
