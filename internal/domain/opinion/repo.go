package opinion

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no draft exists for the requested key.
var ErrNotFound = errors.New("draft not found")

// ErrAccessDenied is returned when the actor is not the case's current assignee.
var ErrAccessDenied = errors.New("not the assigned professional for this case")

// ErrEditConflict is returned when a save carries a stale edit-sequence
// token, turning concurrent-session clobbering into a detectable conflict.
var ErrEditConflict = errors.New("draft was modified by another session")

// ErrWrongState is returned when an operation targets a draft outside the
// status it requires.
var ErrWrongState = errors.New("draft is not in the required status")

// ErrUnknownSection is returned when a write carries a section key outside
// the fixed document shape.
var ErrUnknownSection = errors.New("unknown section key")

type Repository interface {
	// GetActive returns the single non-terminal editable draft for the pair.
	GetActive(ctx context.Context, caseID, professionalID uuid.UUID) (*Draft, error)
	// GetLatest returns the most recent draft for the pair regardless of status.
	GetLatest(ctx context.Context, caseID, professionalID uuid.UUID) (*Draft, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Draft, error)
	Insert(ctx context.Context, d *Draft) error
	// UpdateSections overwrites the draft's content last-write-wins and bumps
	// the edit sequence, conditional on the draft still being in draft status.
	UpdateSections(ctx context.Context, d *Draft) error
	// UpdateStatus moves the draft between statuses, conditional on the
	// expected current status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	// Finalize stamps finalized_at and moves draft -> ready_for_signature.
	Finalize(ctx context.Context, id uuid.UUID, at time.Time) error
}
