package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoice.Repository using GORM.
// The unique (project_id, period_month) index backs the one-invoice-per-period
// guarantee; a violated insert surfaces as shared.ErrAlreadyExists.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its lines by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFor(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPeriod looks up the at-most-one invoice for (project, periodMonth)
func (r *GormInvoiceRepository) FindByPeriod(ctx context.Context, projectID uuid.UUID, periodMonth string) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFor(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("project_id = ? AND period_month = ?", projectID, periodMonth).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProject finds invoices for a project with pagination
func (r *GormInvoiceRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]invoice.Invoice, error) {
	query := dbFor(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("project_id = ?", projectID).
		Order("period_month DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var invoiceModels []models.InvoiceModel
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]invoice.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// Save persists the invoice header and replaces its lines. A duplicate
// (project, period) insert returns shared.ErrAlreadyExists.
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.CheckTotals(); err != nil {
		return err
	}

	model := models.InvoiceModelFromDomain(inv)
	lines := model.Lines
	model.Lines = nil

	// Header and line replacement commit together even when the caller did
	// not open a surrounding transaction.
	return dbFor(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		if err := tx.Where("invoice_id = ?", model.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

// Delete removes the invoice header and its lines
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFor(ctx, r.db)
	if err := db.Where("invoice_id = ?", id).Delete(&models.InvoiceLineModel{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.InvoiceModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts invoices for a project
func (r *GormInvoiceRepository) Count(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ invoice.Repository = (*GormInvoiceRepository)(nil)
