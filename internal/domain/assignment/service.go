// Package assignment implements the exclusive claim protocol binding one
// professional to one case, and its inverse.
package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workplace/workplace/internal/domain/audit"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/db"
	"github.com/workplace/workplace/internal/platform/notification"
)

type Service struct {
	repo     Repository
	auditor  *audit.Service
	runner   db.Runner
	notifier notification.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, auditor *audit.Service, runner db.Runner, notifier notification.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditor:  auditor,
		runner:   runner,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Claim atomically assigns the case to the professional. Of N concurrent
// claims for one case exactly one succeeds; the others observe ErrConflict
// and no intermediate state. A claimer below the case's requested level gets
// ErrNotFound, mirroring the directory's visibility. The conditional case
// update, the appended CaseAssignment record and the audit entry commit
// together or not at all.
func (s *Service) Claim(ctx context.Context, caseID, professionalID uuid.UUID, level professional.Level) (*CaseAssignment, error) {
	now := s.now()
	a := &CaseAssignment{
		CaseID:         caseID,
		ProfessionalID: professionalID,
		Status:         StatusAssigned,
		AssignedAt:     now,
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.ClaimCase(ctx, caseID, professionalID, level, now); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, a); err != nil {
			return err
		}
		return s.auditor.Record(ctx, "case", caseID, audit.ActionCaseClaimed, professionalID, map[string]interface{}{
			"assignment_id": a.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	// Best-effort, post-commit. A delivery failure must not undo the claim.
	s.notifier.Notify(ctx, notification.Event{
		Kind:           notification.KindCaseClaimed,
		CaseID:         caseID,
		ProfessionalID: professionalID,
		OccurredAt:     now,
	})
	return a, nil
}

// Release undoes an assignment. Allowed only for the current assignee, or
// anyone holding the administrative override. The case reappears in the
// directory afterwards.
func (s *Service) Release(ctx context.Context, caseID, professionalID uuid.UUID, override bool) error {
	now := s.now()
	return s.runner.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.ReleaseCase(ctx, caseID, professionalID, override); err != nil {
			return err
		}
		if err := s.repo.MarkReleased(ctx, caseID, professionalID, now); err != nil {
			return err
		}
		details := map[string]interface{}{}
		if override {
			details["override"] = true
		}
		return s.auditor.Record(ctx, "case", caseID, audit.ActionCaseReleased, professionalID, details)
	})
}

// HasActive reports whether the pair currently holds the assignment.
// Authorization gate for the opinion draft store.
func (s *Service) HasActive(ctx context.Context, caseID, professionalID uuid.UUID) (bool, error) {
	return s.repo.HasActive(ctx, caseID, professionalID)
}

// GetActiveByCase returns the case's active assignment, if any.
func (s *Service) GetActiveByCase(ctx context.Context, caseID uuid.UUID) (*CaseAssignment, error) {
	return s.repo.GetActiveByCase(ctx, caseID)
}
