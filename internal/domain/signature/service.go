// Package signature computes, binds and re-verifies the content hash that
// protects a second opinion across the edit/sign boundary.
package signature

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/workplace/workplace/internal/domain/audit"
	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/domain/opinion"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/db"
	"github.com/workplace/workplace/internal/platform/notification"
)

// Dispatcher decides, at signing time, whether the opinion must route
// through the peer-review gate, and creates the review assignment inside the
// caller's transaction when it does. Satisfied by peerreview.Service.
type Dispatcher interface {
	Dispatch(ctx context.Context, opinionID, caseID uuid.UUID, signerLevel professional.Level) (bool, error)
}

// PrepareResult is returned for client-side confirmation before signing.
type PrepareResult struct {
	OpinionID         uuid.UUID `json:"opinion_id"`
	DocumentHash      string    `json:"document_hash"`
	SignatureDocument string    `json:"signature_document"`
}

// SignResult is the outcome of a successful sign.
type SignResult struct {
	SignatureID        uuid.UUID `json:"signature_id"`
	RequiresPeerReview bool      `json:"requires_peer_review"`
	NextStep           string    `json:"next_step"`
}

// VerifyResult reports post-hoc integrity of a signed opinion.
type VerifyResult struct {
	Valid        bool      `json:"valid"`
	SignerID     uuid.UUID `json:"signer_id"`
	Method       Method    `json:"method"`
	SignedAt     time.Time `json:"signed_at"`
	Detail       string    `json:"detail"`
	DocumentHash string    `json:"document_hash"`
}

type Service struct {
	repo       Repository
	drafts     opinion.Repository
	caseRepo   cases.Repository
	dispatcher Dispatcher
	auditor    *audit.Service
	runner     db.Runner
	notifier   notification.Notifier
	now        func() time.Time
}

func NewService(repo Repository, drafts opinion.Repository, caseRepo cases.Repository, dispatcher Dispatcher, auditor *audit.Service, runner db.Runner, notifier notification.Notifier) *Service {
	return &Service{
		repo:       repo,
		drafts:     drafts,
		caseRepo:   caseRepo,
		dispatcher: dispatcher,
		auditor:    auditor,
		runner:     runner,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Prepare recomputes the content hash over the stored sections of a
// ready-for-signature opinion and returns it with a rendered document for
// the signer to confirm. No side effects.
func (s *Service) Prepare(ctx context.Context, opinionID uuid.UUID) (*PrepareResult, error) {
	d, err := s.drafts.GetByID(ctx, opinionID)
	if err != nil {
		return nil, err
	}
	if d.Status != opinion.StatusReadyForSignature {
		return nil, fmt.Errorf("%w: opinion is %s", opinion.ErrWrongState, d.Status)
	}
	return &PrepareResult{
		OpinionID:         d.ID,
		DocumentHash:      CanonicalDigest(d.Sections),
		SignatureDocument: RenderDocument(d.Sections),
	}, nil
}

// Sign applies the digital signature. The integrity check runs before any
// mutation: the hash is recomputed over the currently stored sections and
// compared byte for byte to what the signer confirmed. Any mismatch — a
// concurrent edit between preparation and signing — fails closed with
// ErrIntegrity and the opinion is left untouched. On a match the signature
// record, the status transitions, the peer-review decision and the audit
// entry commit as one unit; a failure partway leaves nothing behind.
func (s *Service) Sign(ctx context.Context, opinionID, signerID uuid.UUID, signerLevel professional.Level, method Method, clientHash, signatureData string) (*SignResult, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("invalid signature method: %q", method)
	}

	var result *SignResult
	var caseID uuid.UUID
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		d, err := s.drafts.GetByID(ctx, opinionID)
		if err != nil {
			return err
		}
		if d.Status != opinion.StatusReadyForSignature {
			return fmt.Errorf("%w: opinion is %s", opinion.ErrWrongState, d.Status)
		}
		if d.ProfessionalID != signerID {
			return ErrNotSigner
		}
		caseID = d.CaseID

		storedHash := CanonicalDigest(d.Sections)
		if !DigestEqual(storedHash, clientHash) {
			return ErrIntegrity
		}

		sig := &DigitalSignature{
			OpinionID:     d.ID,
			DocumentHash:  storedHash,
			Method:        method,
			SignerID:      signerID,
			SignatureData: signatureData,
			Verified:      true,
			SignedAt:      s.now(),
		}
		if err := s.repo.Insert(ctx, sig); err != nil {
			return err
		}

		required, err := s.dispatcher.Dispatch(ctx, d.ID, d.CaseID, signerLevel)
		if err != nil {
			return err
		}

		nextStep := "delivery"
		if required {
			nextStep = "peer_review"
			if err := s.drafts.UpdateStatus(ctx, d.ID, opinion.StatusReadyForSignature, opinion.StatusPendingPeerReview); err != nil {
				return err
			}
			if err := s.caseRepo.UpdateStatus(ctx, d.CaseID, cases.StatusReadyForSignature, cases.StatusPendingPeerReview); err != nil {
				return err
			}
		} else {
			if err := s.drafts.UpdateStatus(ctx, d.ID, opinion.StatusReadyForSignature, opinion.StatusSigned); err != nil {
				return err
			}
			if err := s.caseRepo.UpdateStatus(ctx, d.CaseID, cases.StatusReadyForSignature, cases.StatusOpinionSigned); err != nil {
				return err
			}
		}

		if err := s.auditor.Record(ctx, "opinion", d.ID, audit.ActionSignatureApplied, signerID, map[string]interface{}{
			"case_id":              d.CaseID.String(),
			"signature_id":         sig.ID.String(),
			"method":               string(method),
			"requires_peer_review": required,
		}); err != nil {
			return err
		}

		result = &SignResult{
			SignatureID:        sig.ID,
			RequiresPeerReview: required,
			NextStep:           nextStep,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best-effort, post-commit.
	kind := notification.KindOpinionSigned
	if result.RequiresPeerReview {
		kind = notification.KindPeerReviewPending
	}
	s.notifier.Notify(ctx, notification.Event{
		Kind:           kind,
		CaseID:         caseID,
		ProfessionalID: signerID,
		OpinionID:      opinionID,
	})
	return result, nil
}

// Verify recomputes the hash over the currently stored sections and compares
// it to the signature record, so any later consumer can detect
// post-signature tampering independent of the signing step. The document is
// also rejected when it was re-finalized after the signature was applied.
func (s *Service) Verify(ctx context.Context, opinionID uuid.UUID) (*VerifyResult, error) {
	d, err := s.drafts.GetByID(ctx, opinionID)
	if err != nil {
		return nil, err
	}
	sig, err := s.repo.GetByOpinion(ctx, opinionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{
		SignerID:     sig.SignerID,
		Method:       sig.Method,
		SignedAt:     sig.SignedAt,
		DocumentHash: sig.DocumentHash,
	}

	current := CanonicalDigest(d.Sections)
	switch {
	case !DigestEqual(current, sig.DocumentHash):
		res.Detail = "document content no longer matches the signed hash"
	case d.FinalizedAt != nil && d.FinalizedAt.After(sig.SignedAt):
		res.Detail = "document was re-finalized after signing"
	default:
		res.Valid = true
		res.Detail = "signature verified against current document content"
	}
	return res, nil
}
