package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPerformanceRecordRepository implements billing.PerformanceRecordRepository
// over the shipments and labor_entries tables.
type GormPerformanceRecordRepository struct {
	db *gorm.DB
}

// NewGormPerformanceRecordRepository creates a new GormPerformanceRecordRepository
func NewGormPerformanceRecordRepository(db *gorm.DB) *GormPerformanceRecordRepository {
	return &GormPerformanceRecordRepository{db: db}
}

// FindUnbilled returns uninvoiced records for the project whose date falls in
// [periodStart, periodEnd), shipments before labor entries, each in insertion
// order.
func (r *GormPerformanceRecordRepository) FindUnbilled(ctx context.Context, projectID uuid.UUID, periodStart, periodEnd time.Time) ([]billing.PerformanceRecord, error) {
	db := dbFor(ctx, r.db)

	var shipmentModels []models.ShipmentModel
	if err := db.
		Where("project_id = ? AND invoiced = ? AND date >= ? AND date < ?", projectID, false, periodStart, periodEnd).
		Order("created_at ASC").
		Find(&shipmentModels).Error; err != nil {
		return nil, err
	}

	var laborModels []models.LaborEntryModel
	if err := db.
		Where("project_id = ? AND invoiced = ? AND date >= ? AND date < ?", projectID, false, periodStart, periodEnd).
		Order("created_at ASC").
		Find(&laborModels).Error; err != nil {
		return nil, err
	}

	records := make([]billing.PerformanceRecord, 0, len(shipmentModels)+len(laborModels))
	for i := range shipmentModels {
		records = append(records, shipmentModels[i].ToDomain())
	}
	for i := range laborModels {
		records = append(records, laborModels[i].ToDomain())
	}
	return records, nil
}

// FindByIDs loads records by ID from both tables, shipments first
func (r *GormPerformanceRecordRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]billing.PerformanceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := dbFor(ctx, r.db)

	var shipmentModels []models.ShipmentModel
	if err := db.Where("id IN ?", ids).Order("created_at ASC").Find(&shipmentModels).Error; err != nil {
		return nil, err
	}
	var laborModels []models.LaborEntryModel
	if err := db.Where("id IN ?", ids).Order("created_at ASC").Find(&laborModels).Error; err != nil {
		return nil, err
	}

	records := make([]billing.PerformanceRecord, 0, len(shipmentModels)+len(laborModels))
	for i := range shipmentModels {
		records = append(records, shipmentModels[i].ToDomain())
	}
	for i := range laborModels {
		records = append(records, laborModels[i].ToDomain())
	}
	return records, nil
}

// SaveShipment creates or updates a shipment record
func (r *GormPerformanceRecordRepository) SaveShipment(ctx context.Context, s *billing.Shipment) error {
	return dbFor(ctx, r.db).Save(models.ShipmentModelFromDomain(s)).Error
}

// SaveLaborEntry creates or updates a labor record
func (r *GormPerformanceRecordRepository) SaveLaborEntry(ctx context.Context, l *billing.LaborEntry) error {
	return dbFor(ctx, r.db).Save(models.LaborEntryModelFromDomain(l)).Error
}

// MarkInvoiced links the given records to the invoice that consumed them.
// Records already linked elsewhere are left untouched.
func (r *GormPerformanceRecordRepository) MarkInvoiced(ctx context.Context, recordIDs []uuid.UUID, invoiceID uuid.UUID) error {
	if len(recordIDs) == 0 {
		return nil
	}
	db := dbFor(ctx, r.db)
	updates := map[string]interface{}{
		"invoiced":   true,
		"invoice_id": invoiceID,
		"updated_at": time.Now(),
	}

	if err := db.Model(&models.ShipmentModel{}).
		Where("id IN ? AND invoiced = ?", recordIDs, false).
		Updates(updates).Error; err != nil {
		return err
	}
	return db.Model(&models.LaborEntryModel{}).
		Where("id IN ? AND invoiced = ?", recordIDs, false).
		Updates(updates).Error
}

// UnlinkByInvoice clears invoiced flags for every record the invoice consumed
func (r *GormPerformanceRecordRepository) UnlinkByInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	db := dbFor(ctx, r.db)
	updates := map[string]interface{}{
		"invoiced":   false,
		"invoice_id": nil,
		"updated_at": time.Now(),
	}

	if err := db.Model(&models.ShipmentModel{}).
		Where("invoice_id = ?", invoiceID).
		Updates(updates).Error; err != nil {
		return err
	}
	return db.Model(&models.LaborEntryModel{}).
		Where("invoice_id = ?", invoiceID).
		Updates(updates).Error
}

var _ billing.PerformanceRecordRepository = (*GormPerformanceRecordRepository)(nil)
