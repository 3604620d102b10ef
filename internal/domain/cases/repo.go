package cases

import (
	"context"

	"github.com/google/uuid"

	"github.com/workplace/workplace/internal/domain/professional"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)
	// ListUnclaimed returns unassigned, directory-eligible cases whose
	// requested level is within the given set, oldest first, capped at limit.
	ListUnclaimed(ctx context.Context, levels []professional.Level, category string, limit int) ([]*Case, error)
	// UpdateStatus moves the case to next, guarded by the transition table
	// and by the expected current status in the WHERE clause.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
}
