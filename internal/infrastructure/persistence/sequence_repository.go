package persistence

import (
	"context"

	"github.com/logistics-erp/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormSequenceRepository implements ledger.SequenceRepository with one
// atomically incremented counter row per (prefix, year). The upsert keeps
// allocation race-free without an explicit lock.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next returns the next value of the (prefix, year) counter, creating it at 1
// on first use. Allocated values are never reused, even when the surrounding
// transaction rolls back; document number sequences may have gaps.
func (r *GormSequenceRepository) Next(ctx context.Context, prefix string, year int) (int64, error) {
	var value int64
	err := dbFor(ctx, r.db).Raw(
		`INSERT INTO document_sequences (prefix, year, value) VALUES (?, ?, 1)
		 ON CONFLICT (prefix, year) DO UPDATE SET value = document_sequences.value + 1
		 RETURNING value`,
		prefix, year,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

var _ ledger.SequenceRepository = (*GormSequenceRepository)(nil)
