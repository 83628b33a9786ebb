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

// GormReconciliationTaskRepository implements ledger.ReconciliationTaskRepository using GORM
type GormReconciliationTaskRepository struct {
	db *gorm.DB
}

// NewGormReconciliationTaskRepository creates a new GormReconciliationTaskRepository
func NewGormReconciliationTaskRepository(db *gorm.DB) *GormReconciliationTaskRepository {
	return &GormReconciliationTaskRepository{db: db}
}

// Save creates or updates a reconciliation task
func (r *GormReconciliationTaskRepository) Save(ctx context.Context, task *ledger.ReconciliationTask) error {
	model := models.ReconciliationTaskModelFromDomain(task)
	if err := dbFor(ctx, r.db).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindOpen returns open tasks oldest-first, capped at limit
func (r *GormReconciliationTaskRepository) FindOpen(ctx context.Context, limit int) ([]ledger.ReconciliationTask, error) {
	query := dbFor(ctx, r.db).
		Where("status = ?", ledger.ReconciliationOpen).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var taskModels []models.ReconciliationTaskModel
	if err := query.Find(&taskModels).Error; err != nil {
		return nil, err
	}
	tasks := make([]ledger.ReconciliationTask, len(taskModels))
	for i, model := range taskModels {
		tasks[i] = *model.ToDomain()
	}
	return tasks, nil
}

// FindBySource looks up the task recorded for a source document
func (r *GormReconciliationTaskRepository) FindBySource(ctx context.Context, sourceID uuid.UUID) (*ledger.ReconciliationTask, error) {
	var model models.ReconciliationTaskModel
	if err := dbFor(ctx, r.db).Where("source_id = ?", sourceID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ ledger.ReconciliationTaskRepository = (*GormReconciliationTaskRepository)(nil)
