package audit

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one entry. Callers invoke it inside the same transaction as
// the state change it documents.
func (s *Service) Record(ctx context.Context, entityType string, entityID uuid.UUID, action string, performedBy uuid.UUID, details map[string]interface{}) error {
	return s.repo.Append(ctx, &Entry{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		PerformedBy: performedBy,
		Details:     details,
	})
}

func (s *Service) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID, limit, offset)
}

func (s *Service) List(ctx context.Context, action string, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, action, limit, offset)
}
