// Package peerreview gates signed opinions behind an additional review by a
// distinguished-level professional before delivery.
package peerreview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workplace/workplace/internal/domain/audit"
	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/domain/opinion"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/db"
	"github.com/workplace/workplace/internal/platform/notification"
	"github.com/workplace/workplace/internal/platform/rng"
)

// ErrReviewerLevel is returned when the caller does not hold the level the
// review assignment requires.
var ErrReviewerLevel = errors.New("reviewer does not hold the required level")

type Service struct {
	repo     Repository
	drafts   opinion.Repository
	caseRepo cases.Repository
	auditor  *audit.Service
	runner   db.Runner
	notifier notification.Notifier
	random   rng.Source
	rate     float64
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService wires the review gate. rate is the probability in [0,1] that a
// non-junior signer is sampled for review; junior signers are always routed.
func NewService(repo Repository, drafts opinion.Repository, caseRepo cases.Repository, auditor *audit.Service, runner db.Runner, notifier notification.Notifier, random rng.Source, rate float64, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		drafts:   drafts,
		caseRepo: caseRepo,
		auditor:  auditor,
		runner:   runner,
		notifier: notifier,
		random:   random,
		rate:     rate,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Dispatch decides whether the freshly signed opinion must pass peer review
// and, when it must, creates the pending assignment. It runs inside the
// signing transaction, so the assignment and the signature commit or roll
// back together.
func (s *Service) Dispatch(ctx context.Context, opinionID, caseID uuid.UUID, signerLevel professional.Level) (bool, error) {
	reason := ""
	switch {
	case signerLevel == professional.LevelJunior:
		reason = "junior_author"
	case s.random.Float64() < s.rate:
		reason = "random_sample"
	default:
		return false, nil
	}

	a := &Assignment{
		OpinionID:     opinionID,
		CaseID:        caseID,
		Status:        StatusPending,
		RequiredLevel: professional.LevelDistinguished,
		AssignedAt:    s.now(),
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		return false, err
	}

	// System decision, no acting professional.
	if err := s.auditor.Record(ctx, "peer_review", a.ID, audit.ActionPeerReviewRequested, uuid.Nil, map[string]interface{}{
		"opinion_id":   opinionID.String(),
		"case_id":      caseID.String(),
		"signer_level": string(signerLevel),
		"reason":       reason,
	}); err != nil {
		return false, err
	}

	s.logger.Info().
		Str("opinion_id", opinionID.String()).
		Str("reason", reason).
		Msg("opinion routed to peer review")
	return true, nil
}

// Complete records the reviewer's approval and releases the opinion toward
// delivery. Only a distinguished-level professional may complete a review.
func (s *Service) Complete(ctx context.Context, reviewID, reviewerID uuid.UUID, reviewerLevel professional.Level) (*Assignment, error) {
	if reviewerLevel.Rank() < professional.LevelDistinguished.Rank() {
		return nil, ErrReviewerLevel
	}

	var reviewed *Assignment
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if a.Status != StatusPending {
			return fmt.Errorf("%w: review is %s", ErrNotPending, a.Status)
		}

		completedAt := s.now()
		if err := s.repo.Complete(ctx, a.ID, reviewerID, completedAt); err != nil {
			return err
		}
		if err := s.drafts.UpdateStatus(ctx, a.OpinionID, opinion.StatusPendingPeerReview, opinion.StatusSigned); err != nil {
			return err
		}
		if err := s.caseRepo.UpdateStatus(ctx, a.CaseID, cases.StatusPendingPeerReview, cases.StatusOpinionSigned); err != nil {
			return err
		}

		if err := s.auditor.Record(ctx, "peer_review", a.ID, audit.ActionPeerReviewCompleted, reviewerID, map[string]interface{}{
			"opinion_id": a.OpinionID.String(),
			"case_id":    a.CaseID.String(),
		}); err != nil {
			return err
		}

		a.Status = StatusCompleted
		a.ReviewerID = &reviewerID
		a.CompletedAt = &completedAt
		reviewed = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best-effort, post-commit.
	s.notifier.Notify(ctx, notification.Event{
		Kind:           notification.KindOpinionSigned,
		CaseID:         reviewed.CaseID,
		ProfessionalID: reviewerID,
		OpinionID:      reviewed.OpinionID,
	})
	return reviewed, nil
}

// MarkDelivered transitions a signed opinion and its case to delivered.
// Called when the delivery channel confirms handoff to the patient.
func (s *Service) MarkDelivered(ctx context.Context, opinionID, actorID uuid.UUID) error {
	return s.runner.InTx(ctx, func(ctx context.Context) error {
		d, err := s.drafts.GetByID(ctx, opinionID)
		if err != nil {
			return err
		}
		if err := s.drafts.UpdateStatus(ctx, d.ID, opinion.StatusSigned, opinion.StatusDelivered); err != nil {
			return err
		}
		if err := s.caseRepo.UpdateStatus(ctx, d.CaseID, cases.StatusOpinionSigned, cases.StatusDelivered); err != nil {
			return err
		}
		return s.auditor.Record(ctx, "opinion", d.ID, audit.ActionOpinionDelivered, actorID, map[string]interface{}{
			"case_id": d.CaseID.String(),
		})
	})
}

// ListPending returns the open review queue, oldest first.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*Assignment, int, error) {
	return s.repo.ListPending(ctx, limit, offset)
}
