package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the settlement engine.
const (
	AuditSellItem    = "SELL_ITEM"
	AuditReverseSale = "UNDO_SOLD"
	AuditUpdateSale  = "UPDATE_SOLD"
)

// AuditEntry is an immutable record of a settlement or reversal action.
// Append-only: the repository exposes no update or delete.
type AuditEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Action     string    `gorm:"not null;index"`
	EntityType string    `gorm:"not null"` // "lot" | "sale"
	EntityID   uuid.UUID `gorm:"type:uuid;not null"`
	// Meta carries action context: serial, price, buyer, before/after
	// snapshots where applicable.
	Meta      json.RawMessage `gorm:"type:jsonb"`
	CreatedAt time.Time
}
