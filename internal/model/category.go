package model

import (
	"time"

	"github.com/google/uuid"
)

// Category groups lots (ruby, emerald, polki…). Tenant-scoped like everything
// else.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_categories_tenant_name"`
	Name      string    `gorm:"not null;uniqueIndex:idx_categories_tenant_name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
