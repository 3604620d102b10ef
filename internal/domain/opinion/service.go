// Package opinion holds the editable second-opinion draft for an assigned
// case and the completeness gate that locks it for signature.
package opinion

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/workplace/workplace/internal/domain/audit"
	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/platform/db"
)

// AssignmentChecker reports whether a professional currently holds a case.
// Satisfied by assignment.Service.
type AssignmentChecker interface {
	HasActive(ctx context.Context, caseID, professionalID uuid.UUID) (bool, error)
}

type Service struct {
	repo        Repository
	assignments AssignmentChecker
	caseRepo    cases.Repository
	auditor     *audit.Service
	runner      db.Runner
	now         func() time.Time
}

func NewService(repo Repository, assignments AssignmentChecker, caseRepo cases.Repository, auditor *audit.Service, runner db.Runner) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		caseRepo:    caseRepo,
		auditor:     auditor,
		runner:      runner,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SaveDraft upserts the single non-terminal draft for the pair. Writes are
// last-write-wins by server receipt time; a caller that supplies
// expectedSequence opts into optimistic concurrency and receives
// ErrEditConflict instead of silently clobbering a newer session's content.
func (s *Service) SaveDraft(ctx context.Context, caseID, professionalID uuid.UUID, sections Sections, expectedSequence *int) (*Draft, error) {
	if err := validateShape(sections); err != nil {
		return nil, err
	}
	if err := s.requireAssignee(ctx, caseID, professionalID); err != nil {
		return nil, err
	}

	var result *Draft
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetActive(ctx, caseID, professionalID)
		switch {
		case errors.Is(err, ErrNotFound):
			d := &Draft{
				CaseID:         caseID,
				ProfessionalID: professionalID,
				Sections:       merged(NewSections(), sections),
				Status:         StatusDraft,
				EditSequence:   1,
				LastModified:   s.now(),
			}
			if err := s.repo.Insert(ctx, d); err != nil {
				return err
			}
			result = d
			return nil
		case err != nil:
			return err
		}

		if expectedSequence != nil && *expectedSequence != existing.EditSequence {
			return ErrEditConflict
		}
		existing.Sections = merged(existing.Sections, sections)
		existing.EditSequence++
		existing.LastModified = s.now()
		if err := s.repo.UpdateSections(ctx, existing); err != nil {
			return err
		}
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetDraft returns the pair's most recent draft.
func (s *Service) GetDraft(ctx context.Context, caseID, professionalID uuid.UUID) (*Draft, error) {
	return s.repo.GetLatest(ctx, caseID, professionalID)
}

// Finalize locks the draft for signature after the completeness check. On
// rejection nothing mutates and the caller gets the exact incomplete key
// list; repeating the call with the same content yields the same list. On
// success the draft content is replaced by the submitted sections, the draft
// moves to ready_for_signature and the case to opinion_ready_for_signature,
// atomically.
func (s *Service) Finalize(ctx context.Context, caseID, professionalID uuid.UUID, sections Sections) (*Draft, error) {
	if err := validateShape(sections); err != nil {
		return nil, err
	}
	if err := s.requireAssignee(ctx, caseID, professionalID); err != nil {
		return nil, err
	}
	if verr := validateCompleteness(sections); verr != nil {
		return nil, verr
	}

	var result *Draft
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetActive(ctx, caseID, professionalID)
		if err != nil {
			return err
		}

		d.Sections = merged(d.Sections, sections)
		d.EditSequence++
		d.LastModified = s.now()
		if err := s.repo.UpdateSections(ctx, d); err != nil {
			return err
		}

		at := s.now()
		if err := s.repo.Finalize(ctx, d.ID, at); err != nil {
			return err
		}
		d.Status = StatusReadyForSignature
		d.FinalizedAt = &at

		if err := s.caseRepo.UpdateStatus(ctx, caseID, cases.StatusAssigned, cases.StatusReadyForSignature); err != nil {
			return err
		}

		if err := s.auditor.Record(ctx, "opinion", d.ID, audit.ActionOpinionFinalized, professionalID, map[string]interface{}{
			"case_id": caseID.String(),
		}); err != nil {
			return err
		}
		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) requireAssignee(ctx context.Context, caseID, professionalID uuid.UUID) error {
	ok, err := s.assignments.HasActive(ctx, caseID, professionalID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccessDenied
	}
	return nil
}

// merged overlays incoming sections on a base document, preserving base
// entries the client did not send. Non-editable sections keep their content.
// Editability and titles are server-owned: clients cannot change them by
// omitting or overriding the fields.
func merged(base, incoming Sections) Sections {
	out := make(Sections, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range incoming {
		if existing, ok := out[k]; ok {
			if !existing.Editable {
				continue
			}
			v.Editable = existing.Editable
			if v.Title == "" {
				v.Title = existing.Title
			}
		}
		v.Required = RequiredSection(k)
		out[k] = v
	}
	return out
}
