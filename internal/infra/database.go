package infra

import (
	"fmt"

	"github.com/lashkaryadi/kuber-be/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all engine tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates all tables and applies schema patches.
// Also used by integration tests against a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Lot{},
		&model.Sale{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.SequenceCounter{},
		&model.AuditEntry{},
		&model.CompanyProfile{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Live-lot listings always filter on is_deleted = false; a partial
		// index keeps them off the soft-deleted rows.
		`CREATE INDEX IF NOT EXISTS idx_lots_live
		     ON lots (tenant_id, status)
		     WHERE is_deleted = false`,
		// The sold listing joins lots for serial search.
		`CREATE INDEX IF NOT EXISTS idx_sales_tenant_created
		     ON sales (tenant_id, created_at DESC)`,
		// At most one sale_ref invoice per sale: two racing lazy
		// compositions both insert, and this index makes the loser fail
		// instead of leaving a duplicate.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_invoices_sale
		     ON invoices (sale_id)
		     WHERE sale_id IS NOT NULL`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
