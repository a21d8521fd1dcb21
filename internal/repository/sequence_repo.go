package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SequenceRepository produces gap-free, strictly increasing invoice numbers
// per (tenant, year). The increment must be atomic: there is no fallback to a
// read-then-write, which would permit duplicate numbers under concurrency.
type SequenceRepository interface {
	// Next upserts the (tenant, year) counter and returns its new value,
	// starting at 1 when the counter does not exist yet. Safe for
	// concurrent callers on the same key. Runs inside the caller's
	// transaction: a rolled-back settlement releases its number with the
	// rollback, so committed numbers stay gap-free and are never reused.
	Next(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, year int) (int64, error)
}

type sequenceRepo struct{ db *gorm.DB }

func NewSequenceRepository(db *gorm.DB) SequenceRepository { return &sequenceRepo{db: db} }

const nextSeqSQL = `
INSERT INTO sequence_counters (tenant_id, year, value, updated_at)
VALUES (?, ?, 1, NOW())
ON CONFLICT (tenant_id, year)
DO UPDATE SET value = sequence_counters.value + 1, updated_at = NOW()
RETURNING value`

func (r *sequenceRepo) Next(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, year int) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var value int64
	res := tx.WithContext(ctx).Raw(nextSeqSQL, tenantID, year).Scan(&value)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 || value < 1 {
		return 0, fmt.Errorf("sequence upsert returned no value for tenant %s year %d", tenantID, year)
	}
	return value, nil
}

// FormatInvoiceNumber renders "{PREFIX}-{YEAR}-{value zero-padded to 5 digits}".
func FormatInvoiceNumber(prefix string, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, value)
}
