package invoice

import (
	"context"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/shared"
)

// Repository manages invoice persistence. The header and its lines are one
// aggregate: saves and deletes cover both.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByPeriod looks up the invoice for (project, periodMonth); at most one
	// exists, backed by a unique index.
	FindByPeriod(ctx context.Context, projectID uuid.UUID, periodMonth string) (*Invoice, error)
	FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	Save(ctx context.Context, inv *Invoice) error
	// Delete removes the header and its lines. Unlinking consumed performance
	// records is the caller's responsibility, in the same transaction.
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, projectID uuid.UUID) (int64, error)
}
