package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipment_MarkInvoiced(t *testing.T) {
	s := mustShipment(t, "F100", 10, "P-01", 1)
	invoiceID := uuid.New()

	require.NoError(t, s.MarkInvoiced(invoiceID))
	assert.True(t, s.Invoiced)
	require.NotNil(t, s.InvoiceID, "an invoiced record always carries its invoice ID")
	assert.Equal(t, invoiceID, *s.InvoiceID)

	assert.Error(t, s.MarkInvoiced(uuid.New()), "a billed record cannot be billed again")
	assert.Error(t, mustShipment(t, "F100", 10, "", 0).MarkInvoiced(uuid.Nil))
}

func TestShipment_Unlink(t *testing.T) {
	s := mustShipment(t, "F100", 10, "P-01", 1)
	require.NoError(t, s.MarkInvoiced(uuid.New()))

	s.Unlink()
	assert.False(t, s.Invoiced)
	assert.Nil(t, s.InvoiceID)
}

func TestLaborEntry_MarkInvoiced(t *testing.T) {
	l := mustLabor(t, "Picking", 4, nil)
	invoiceID := uuid.New()

	require.NoError(t, l.MarkInvoiced(invoiceID))
	assert.True(t, l.Invoiced)
	require.NotNil(t, l.InvoiceID)
	assert.Equal(t, invoiceID, *l.InvoiceID)
}

func TestNewShipment_Validation(t *testing.T) {
	_, err := NewShipment(uuid.Nil, testDate(1), "F100", decimal.NewFromInt(1), "", 0)
	assert.Error(t, err)

	_, err = NewShipment(testProjectID, testDate(1), "F100", decimal.NewFromInt(-1), "", 0)
	assert.Error(t, err)
}

func TestGroupValue_UnsupportedKeyIsUnknown(t *testing.T) {
	s := mustShipment(t, "F100", 10, "P-01", 1)
	assert.Equal(t, UnknownGroup, s.GroupValue(GroupByWorkType))

	l := mustLabor(t, "Picking", 4, nil)
	assert.Equal(t, UnknownGroup, l.GroupValue(GroupByPartNo))
}
