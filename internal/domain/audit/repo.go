package audit

import (
	"context"

	"github.com/google/uuid"
)

// Sink durably persists audit entries. Append joins the caller's transaction
// when one is bound to the context, so a rolled-back workflow operation
// leaves no audit trace behind.
type Sink interface {
	Append(ctx context.Context, e *Entry) error
}

type Repository interface {
	Sink
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Entry, int, error)
	List(ctx context.Context, action string, limit, offset int) ([]*Entry, int, error)
}
