package service

import (
	"context"
	"time"

	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/repository"

	"github.com/google/uuid"
)

// AuditService is the read surface of the append-only audit trail.
type AuditService interface {
	List(ctx context.Context, tenantID uuid.UUID, filter dto.AuditFilter) (*dto.AuditListResponse, error)
}

type auditService struct {
	audit repository.AuditRepository
}

func NewAuditService(audit repository.AuditRepository) AuditService {
	return &auditService{audit: audit}
}

func (s *auditService) List(ctx context.Context, tenantID uuid.UUID, filter dto.AuditFilter) (*dto.AuditListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	entries, total, err := s.audit.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.AuditListResponse{
		Data:  make([]dto.AuditEntryResponse, 0, len(entries)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for _, e := range entries {
		resp.Data = append(resp.Data, dto.AuditEntryResponse{
			ID:         e.ID.String(),
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID.String(),
			Meta:       e.Meta,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}
