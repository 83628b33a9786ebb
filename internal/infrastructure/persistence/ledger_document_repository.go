package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerDocumentRepository implements ledger.DocumentRepository using GORM.
// The unique index on source_id is the storage half of the one-document-per-
// source guarantee; a violated insert surfaces as shared.ErrAlreadyExists.
type GormLedgerDocumentRepository struct {
	db *gorm.DB
}

// NewGormLedgerDocumentRepository creates a new GormLedgerDocumentRepository
func NewGormLedgerDocumentRepository(db *gorm.DB) *GormLedgerDocumentRepository {
	return &GormLedgerDocumentRepository{db: db}
}

// FindByID finds a ledger document by its ID
func (r *GormLedgerDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	var model models.LedgerDocumentModel
	if err := dbFor(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySource looks up the at-most-one document spawned by a source document
func (r *GormLedgerDocumentRepository) FindBySource(ctx context.Context, sourceID uuid.UUID) (*ledger.Document, error) {
	var model models.LedgerDocumentModel
	if err := dbFor(ctx, r.db).Where("source_id = ?", sourceID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds ledger documents matching the filter
func (r *GormLedgerDocumentRepository) FindAll(ctx context.Context, filter ledger.DocumentFilter) ([]ledger.Document, error) {
	query := r.applyFilter(dbFor(ctx, r.db), filter).Order("created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var documentModels []models.LedgerDocumentModel
	if err := query.Find(&documentModels).Error; err != nil {
		return nil, err
	}
	documents := make([]ledger.Document, len(documentModels))
	for i, model := range documentModels {
		documents[i] = *model.ToDomain()
	}
	return documents, nil
}

// Count counts ledger documents matching the filter
func (r *GormLedgerDocumentRepository) Count(ctx context.Context, filter ledger.DocumentFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(dbFor(ctx, r.db).Model(&models.LedgerDocumentModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the document after checking its monetary invariants.
// A duplicate source_id insert returns shared.ErrAlreadyExists.
func (r *GormLedgerDocumentRepository) Save(ctx context.Context, doc *ledger.Document) error {
	if err := doc.CheckInvariants(); err != nil {
		return err
	}
	model := models.LedgerDocumentModelFromDomain(doc)
	if err := dbFor(ctx, r.db).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete removes a ledger document
func (r *GormLedgerDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFor(ctx, r.db).Delete(&models.LedgerDocumentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormLedgerDocumentRepository) applyFilter(query *gorm.DB, filter ledger.DocumentFilter) *gorm.DB {
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	return query
}

var _ ledger.DocumentRepository = (*GormLedgerDocumentRepository)(nil)
