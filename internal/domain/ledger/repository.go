package ledger

import (
	"context"

	"github.com/google/uuid"
)

// DocumentFilter narrows ledger document queries
type DocumentFilter struct {
	Kind     *Kind
	Status   *Status
	PartyID  *uuid.UUID
	Page     int
	PageSize int
}

// DocumentRepository manages ledger document persistence.
// The store enforces a unique index on source_id; a violated insert surfaces
// as shared.ErrAlreadyExists so callers can resolve the race idempotently.
type DocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// FindBySource looks up the at-most-one document spawned by a source
	// document; shared.ErrNotFound when none exists.
	FindBySource(ctx context.Context, sourceID uuid.UUID) (*Document, error)
	FindAll(ctx context.Context, filter DocumentFilter) ([]Document, error)
	Count(ctx context.Context, filter DocumentFilter) (int64, error)
	// Save persists the document after checking its monetary invariants.
	Save(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SequenceRepository allocates document numbers from atomically incremented
// per-(prefix, year) counters. Two concurrent calls never return the same
// value for the same counter.
type SequenceRepository interface {
	Next(ctx context.Context, prefix string, year int) (int64, error)
}

// ReconciliationTaskRepository stores durable markers for failed best-effort
// ledger auto-creation, so a repair pass has something to act on.
type ReconciliationTaskRepository interface {
	Save(ctx context.Context, task *ReconciliationTask) error
	FindOpen(ctx context.Context, limit int) ([]ReconciliationTask, error)
	FindBySource(ctx context.Context, sourceID uuid.UUID) (*ReconciliationTask, error)
}
