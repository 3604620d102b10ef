package peerreview

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("peer review assignment not found")

// ErrNotPending is returned when completing a review that is not pending.
var ErrNotPending = errors.New("peer review is not pending")

type Repository interface {
	Insert(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	GetByOpinion(ctx context.Context, opinionID uuid.UUID) (*Assignment, error)
	// Complete moves pending -> completed, conditional on the current status.
	Complete(ctx context.Context, id, reviewerID uuid.UUID, at time.Time) error
	ListPending(ctx context.Context, limit, offset int) ([]*Assignment, int, error)
}
