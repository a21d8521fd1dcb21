package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LotRepository defines the data access contract for lots.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type LotRepository interface {
	Create(ctx context.Context, l *model.Lot) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Lot, error)
	FindBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*model.Lot, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.LotFilter) ([]model.Lot, int64, error)

	// UpdateFields writes only the named columns. The quantity and status
	// columns are owned by Deduct/Restore/Correct and must never appear in
	// fields: a full-row save would clobber stock written by a concurrent
	// settlement.
	UpdateFields(ctx context.Context, tenantID, id uuid.UUID, fields map[string]interface{}) error

	// Correct changes the total quantities in a single guarded statement.
	// The already-sold amount is read from the live row inside the statement,
	// so available = newTotal - sold holds even when a settlement lands
	// between the caller's read and the correction. A nil axis is left
	// untouched. A total below the sold amount is a Validation error.
	Correct(ctx context.Context, tenantID, id uuid.UUID, totalPieces *int, totalWeight *decimal.Decimal) (*model.Lot, error)

	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error

	// Deduct atomically decrements both quantity axes and re-derives status
	// in a single guarded statement. Exactly one of two racing deductions
	// against the same remaining stock wins; the loser gets
	// InsufficientStock recomputed against the latest value.
	// Callers must pass the transaction the settlement runs in.
	Deduct(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, pieces int, weight decimal.Decimal) (*model.Lot, error)

	// Restore atomically increments both axes and re-derives status. A
	// restore that would push available above total is an integrity fault,
	// never a silent clamp.
	Restore(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, pieces int, weight decimal.Decimal) (*model.Lot, error)

	// CountByStatus feeds the dashboard: lots per status, deleted excluded.
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[model.LotStatus]int64, error)
	// ListInStock returns non-deleted lots that still hold stock, for the
	// dashboard's in-stock valuation.
	ListInStock(ctx context.Context, tenantID uuid.UUID) ([]model.Lot, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type lotRepo struct{ db *gorm.DB }

func NewLotRepository(db *gorm.DB) LotRepository { return &lotRepo{db: db} }

func (r *lotRepo) DB() *gorm.DB { return r.db }

func (r *lotRepo) Create(ctx context.Context, l *model.Lot) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return apierror.DuplicateSerial("serial number already exists for this tenant")
		}
		return err
	}
	return nil
}

func (r *lotRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Lot, error) {
	var l model.Lot
	err := r.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND tenant_id = ? AND is_deleted = false", id, tenantID).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("lot not found")
	}
	return &l, err
}

func (r *lotRepo) FindBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*model.Lot, error) {
	var l model.Lot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND serial_number = ? AND is_deleted = false", tenantID, serial).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("lot not found")
	}
	return &l, err
}

func (r *lotRepo) List(ctx context.Context, tenantID uuid.UUID, filter dto.LotFilter) ([]model.Lot, int64, error) {
	var lots []model.Lot
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Lot{}).
		Where("tenant_id = ? AND is_deleted = false", tenantID)

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		q = q.Where("serial_number ILIKE ?", "%"+filter.Search+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Category").
		Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&lots).Error
	return lots, total, err
}

func (r *lotRepo) UpdateFields(ctx context.Context, tenantID, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Lot{}).
		Where("id = ? AND tenant_id = ? AND is_deleted = false", id, tenantID).
		Updates(fields)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return apierror.DuplicateSerial("serial number already exists for this tenant")
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.NotFound("lot not found")
	}
	return nil
}

// correctSQL recomputes available from the live sold amount (total - available
// of the old row) rather than from anything the caller read earlier. The WHERE
// guard rejects a correction below that live sold amount. COALESCE leaves an
// axis unchanged when its parameter is NULL.
const correctSQL = `
UPDATE lots SET
  total_pieces = COALESCE(@pieces, total_pieces),
  total_weight = COALESCE(@weight, total_weight),
  available_pieces = COALESCE(@pieces, total_pieces) - (total_pieces - available_pieces),
  available_weight = COALESCE(@weight, total_weight) - (total_weight - available_weight),
  status = CASE
    WHEN COALESCE(@pieces, total_pieces) - (total_pieces - available_pieces) <= 0
      OR COALESCE(@weight, total_weight) - (total_weight - available_weight) <= 0 THEN 'sold'
    WHEN total_pieces > available_pieces OR total_weight > available_weight THEN 'partially_sold'
    WHEN status = 'pending' THEN 'pending'
    ELSE 'in_stock'
  END,
  updated_at = NOW()
WHERE id = @id AND tenant_id = @tenant AND is_deleted = false
  AND total_pieces - available_pieces <= COALESCE(@pieces, total_pieces)
  AND total_weight - available_weight <= COALESCE(@weight, total_weight)
RETURNING *`

func (r *lotRepo) Correct(ctx context.Context, tenantID, id uuid.UUID, totalPieces *int, totalWeight *decimal.Decimal) (*model.Lot, error) {
	var l model.Lot
	res := r.db.WithContext(ctx).Raw(correctSQL, map[string]interface{}{
		"pieces": totalPieces,
		"weight": totalWeight,
		"id":     id,
		"tenant": tenantID,
	}).Scan(&l)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		cur, err := r.FindByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		soldPieces := cur.TotalPieces - cur.AvailablePieces
		if totalPieces != nil && *totalPieces < soldPieces {
			return nil, apierror.Validation(
				fmt.Sprintf("total_pieces cannot drop below the %d pieces already sold", soldPieces))
		}
		soldWeight := cur.TotalWeight.Sub(cur.AvailableWeight)
		if totalWeight != nil && totalWeight.LessThan(soldWeight) {
			return nil, apierror.Validation(
				fmt.Sprintf("total_weight cannot drop below the %s already sold", soldWeight))
		}
		return nil, apierror.Validation("total quantities cannot drop below the amount already sold")
	}
	return &l, nil
}

func (r *lotRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Lot{}).
		Where("id = ? AND tenant_id = ? AND is_deleted = false", id, tenantID).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.NotFound("lot not found")
	}
	return nil
}

// deductSQL adjusts both axes together or not at all: the WHERE guard makes
// the read-modify-write conditional, and the CASE re-derives status from the
// post-deduction values inside the same statement. When it matches zero rows
// either the lot is gone or the latest stock no longer covers the request.
const deductSQL = `
UPDATE lots SET
  available_pieces = available_pieces - ?,
  available_weight = available_weight - ?,
  status = CASE
    WHEN available_pieces - ? <= 0 OR available_weight - ? <= 0 THEN 'sold'
    ELSE 'partially_sold'
  END,
  updated_at = NOW()
WHERE id = ? AND tenant_id = ? AND is_deleted = false
  AND available_pieces >= ? AND available_weight >= ?
RETURNING *`

func (r *lotRepo) Deduct(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, pieces int, weight decimal.Decimal) (*model.Lot, error) {
	var l model.Lot
	res := tx.WithContext(ctx).Raw(deductSQL,
		pieces, weight,
		pieces, weight,
		id, tenantID,
		pieces, weight,
	).Scan(&l)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a vanished lot from a lost race on the stock guard.
		if _, err := r.FindByID(ctx, tenantID, id); err != nil {
			return nil, err
		}
		return nil, apierror.InsufficientStock("requested quantity exceeds available stock")
	}
	return &l, nil
}

const restoreSQL = `
UPDATE lots SET
  available_pieces = available_pieces + ?,
  available_weight = available_weight + ?,
  status = CASE
    WHEN available_pieces + ? <= 0 OR available_weight + ? <= 0 THEN 'sold'
    WHEN available_pieces + ? < total_pieces OR available_weight + ? < total_weight THEN 'partially_sold'
    ELSE 'in_stock'
  END,
  updated_at = NOW()
WHERE id = ? AND tenant_id = ? AND is_deleted = false
  AND available_pieces + ? <= total_pieces
  AND available_weight + ? <= total_weight
RETURNING *`

func (r *lotRepo) Restore(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, pieces int, weight decimal.Decimal) (*model.Lot, error) {
	var l model.Lot
	res := tx.WithContext(ctx).Raw(restoreSQL,
		pieces, weight,
		pieces, weight,
		pieces, weight,
		id, tenantID,
		pieces, weight,
	).Scan(&l)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, tenantID, id); err != nil {
			return nil, err
		}
		// The lot exists, so the guard rejected the increment: restoring
		// would push available above total.
		return nil, apierror.Integrity("restore would exceed the lot's total quantities")
	}
	return &l, nil
}

func (r *lotRepo) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[model.LotStatus]int64, error) {
	type row struct {
		Status model.LotStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Lot{}).
		Select("status, COUNT(*) AS n").
		Where("tenant_id = ? AND is_deleted = false", tenantID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.LotStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

func (r *lotRepo) ListInStock(ctx context.Context, tenantID uuid.UUID) ([]model.Lot, error) {
	var lots []model.Lot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_deleted = false AND status IN ?",
			tenantID, []model.LotStatus{model.StatusInStock, model.StatusPartiallySold, model.StatusPending}).
		Find(&lots).Error
	return lots, err
}

// isUniqueViolation matches PostgreSQL unique constraint errors (SQLSTATE 23505)
// without depending on the driver's error type.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key"))
}
