package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRuleRepository implements billing.RuleRepository using GORM
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// FindByID finds a billing rule by its ID
func (r *GormRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Rule, error) {
	var model models.BillingRuleModel
	if err := dbFor(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveForPeriod returns active rules whose effectivity window overlaps
// the invoice period, ordered by priority then creation time for a stable
// generation sequence.
func (r *GormRuleRepository) FindActiveForPeriod(ctx context.Context, projectID uuid.UUID, periodStart, periodEnd time.Time) ([]billing.Rule, error) {
	var ruleModels []models.BillingRuleModel
	if err := dbFor(ctx, r.db).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Where("effective_from IS NULL OR effective_from <= ?", periodEnd).
		Where("effective_to IS NULL OR effective_to >= ?", periodStart).
		Order("priority ASC, created_at ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}
	rules := make([]billing.Rule, len(ruleModels))
	for i, model := range ruleModels {
		rules[i] = *model.ToDomain()
	}
	return rules, nil
}

// FindByProject finds all rules for a project
func (r *GormRuleRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]billing.Rule, error) {
	var ruleModels []models.BillingRuleModel
	if err := dbFor(ctx, r.db).
		Where("project_id = ?", projectID).
		Order("priority ASC, created_at ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}
	rules := make([]billing.Rule, len(ruleModels))
	for i, model := range ruleModels {
		rules[i] = *model.ToDomain()
	}
	return rules, nil
}

// Save creates or updates a billing rule
func (r *GormRuleRepository) Save(ctx context.Context, rule *billing.Rule) error {
	model := models.BillingRuleModelFromDomain(rule)
	return dbFor(ctx, r.db).Save(model).Error
}

// Delete removes a billing rule
func (r *GormRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFor(ctx, r.db).Delete(&models.BillingRuleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ billing.RuleRepository = (*GormRuleRepository)(nil)
