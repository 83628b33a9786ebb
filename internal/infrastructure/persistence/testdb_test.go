package persistence

import (
	"testing"

	"github.com/logistics-erp/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with the full schema.
// TranslateError keeps unique-violation behavior aligned with postgres.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.BillingRuleModel{},
		&models.ShipmentModel{},
		&models.LaborEntryModel{},
		&models.InvoiceModel{},
		&models.InvoiceLineModel{},
		&models.LedgerDocumentModel{},
		&models.DocumentSequenceModel{},
		&models.ReconciliationTaskModel{},
		&models.PurchaseOrderModel{},
	)
	require.NoError(t, err)

	return db
}
