package model

import (
	"time"

	"github.com/google/uuid"
)

// SequenceCounter backs the per-tenant-per-year invoice number sequence.
// It is only ever touched through an atomic upsert-and-increment; a plain
// read-then-write would allow two concurrent settlements to share a number.
type SequenceCounter struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Year      int       `gorm:"primaryKey"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
