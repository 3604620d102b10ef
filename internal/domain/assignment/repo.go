package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/workplace/workplace/internal/domain/professional"
)

// ErrConflict is the expected lost-race outcome: the case already has an
// assignee. Callers should re-fetch the directory. The winning professional's
// identity is never part of this error.
var ErrConflict = errors.New("case already assigned")

// ErrNotFound covers both absent cases and cases outside the caller's
// permitted levels, deliberately merged so existence is not leaked.
var ErrNotFound = errors.New("case not found")

// ErrNotAssignee is returned when a release is attempted by someone other
// than the current assignee without an administrative override.
var ErrNotAssignee = errors.New("not the current assignee")

type Repository interface {
	// ClaimCase performs the single conditional update that makes claiming
	// race-safe: the assignee is written only if the case currently has none
	// and its requested level is within the claimer's servable levels.
	// Exactly one of N concurrent calls succeeds; the rest get ErrConflict.
	// An under-level claimer gets ErrNotFound, same as an absent case.
	ClaimCase(ctx context.Context, caseID, professionalID uuid.UUID, level professional.Level, now time.Time) error
	// ReleaseCase clears the assignee, conditional on profID being the
	// current one (ignored when override is set), and returns the case to
	// the directory-eligible status.
	ReleaseCase(ctx context.Context, caseID, professionalID uuid.UUID, override bool) error
	Insert(ctx context.Context, a *CaseAssignment) error
	MarkReleased(ctx context.Context, caseID, professionalID uuid.UUID, at time.Time) error
	GetActiveByCase(ctx context.Context, caseID uuid.UUID) (*CaseAssignment, error)
	// HasActive reports whether the (case, professional) pair currently
	// holds the assignment. Authorization gate for draft writes.
	HasActive(ctx context.Context, caseID, professionalID uuid.UUID) (bool, error)
}
