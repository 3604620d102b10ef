package peerreview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workplace/workplace/internal/domain/audit"
	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/domain/opinion"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/notification"
	"github.com/workplace/workplace/internal/platform/rng"
)

// -- Mocks --

type mockReviewRepo struct {
	store map[uuid.UUID]*Assignment
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{store: make(map[uuid.UUID]*Assignment)}
}

func (m *mockReviewRepo) Insert(_ context.Context, a *Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.store[a.ID] = a
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id uuid.UUID) (*Assignment, error) {
	a, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockReviewRepo) GetByOpinion(_ context.Context, opinionID uuid.UUID) (*Assignment, error) {
	for _, a := range m.store {
		if a.OpinionID == opinionID {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockReviewRepo) Complete(_ context.Context, id, reviewerID uuid.UUID, at time.Time) error {
	a, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != StatusPending {
		return ErrNotPending
	}
	a.Status = StatusCompleted
	a.ReviewerID = &reviewerID
	a.CompletedAt = &at
	return nil
}

func (m *mockReviewRepo) ListPending(_ context.Context, _, _ int) ([]*Assignment, int, error) {
	var out []*Assignment
	for _, a := range m.store {
		if a.Status == StatusPending {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

type mockDraftRepo struct {
	store map[uuid.UUID]*opinion.Draft
}

func (m *mockDraftRepo) GetActive(_ context.Context, _, _ uuid.UUID) (*opinion.Draft, error) {
	return nil, opinion.ErrNotFound
}

func (m *mockDraftRepo) GetLatest(_ context.Context, _, _ uuid.UUID) (*opinion.Draft, error) {
	return nil, opinion.ErrNotFound
}

func (m *mockDraftRepo) GetByID(_ context.Context, id uuid.UUID) (*opinion.Draft, error) {
	d, ok := m.store[id]
	if !ok {
		return nil, opinion.ErrNotFound
	}
	return d, nil
}

func (m *mockDraftRepo) Insert(_ context.Context, d *opinion.Draft) error {
	m.store[d.ID] = d
	return nil
}

func (m *mockDraftRepo) UpdateSections(_ context.Context, d *opinion.Draft) error {
	m.store[d.ID] = d
	return nil
}

func (m *mockDraftRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to opinion.Status) error {
	d, ok := m.store[id]
	if !ok || d.Status != from || !from.CanTransitionTo(to) {
		return opinion.ErrWrongState
	}
	d.Status = to
	return nil
}

func (m *mockDraftRepo) Finalize(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return opinion.ErrWrongState
}

type mockCaseRepo struct {
	store map[uuid.UUID]*cases.Case
}

func (m *mockCaseRepo) GetByID(_ context.Context, id uuid.UUID) (*cases.Case, error) {
	c, ok := m.store[id]
	if !ok {
		return nil, cases.ErrNotFound
	}
	return c, nil
}

func (m *mockCaseRepo) ListUnclaimed(_ context.Context, _ []professional.Level, _ string, _ int) ([]*cases.Case, error) {
	return nil, nil
}

func (m *mockCaseRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to cases.Status) error {
	c, ok := m.store[id]
	if !ok {
		return cases.ErrNotFound
	}
	if c.Status != from || !from.CanTransitionTo(to) {
		return cases.ErrInvalidTransition
	}
	c.Status = to
	return nil
}

type mockAuditRepo struct {
	entries []*audit.Entry
}

func (m *mockAuditRepo) Append(_ context.Context, e *audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAuditRepo) ListByEntity(_ context.Context, _ string, _ uuid.UUID, _, _ int) ([]*audit.Entry, int, error) {
	return nil, 0, nil
}

func (m *mockAuditRepo) List(_ context.Context, _ string, _, _ int) ([]*audit.Entry, int, error) {
	return nil, 0, nil
}

type passRunner struct{}

func (passRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	repo     *mockReviewRepo
	drafts   *mockDraftRepo
	caseRepo *mockCaseRepo
	auditRep *mockAuditRepo
	draft    *opinion.Draft
}

func newFixture(random rng.Source, rate float64) *fixture {
	caseID := uuid.New()
	draft := &opinion.Draft{
		ID:             uuid.New(),
		CaseID:         caseID,
		ProfessionalID: uuid.New(),
		Status:         opinion.StatusPendingPeerReview,
	}
	repo := newMockReviewRepo()
	drafts := &mockDraftRepo{store: map[uuid.UUID]*opinion.Draft{draft.ID: draft}}
	caseRepo := &mockCaseRepo{store: map[uuid.UUID]*cases.Case{
		caseID: {ID: caseID, Status: cases.StatusPendingPeerReview},
	}}
	auditRep := &mockAuditRepo{}
	svc := NewService(repo, drafts, caseRepo, audit.NewService(auditRep),
		passRunner{}, notification.NopNotifier{}, random, rate, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, drafts: drafts, caseRepo: caseRepo, auditRep: auditRep, draft: draft}
}

func pendingReview(f *fixture) *Assignment {
	a := &Assignment{
		OpinionID:     f.draft.ID,
		CaseID:        f.draft.CaseID,
		Status:        StatusPending,
		RequiredLevel: professional.LevelDistinguished,
		AssignedAt:    time.Now(),
	}
	_ = f.repo.Insert(context.Background(), a)
	return a
}

// -- Tests --

func TestDispatch_JuniorAlwaysRequired(t *testing.T) {
	// Draw far above any plausible rate: the junior rule must win regardless.
	f := newFixture(rng.NewFixed(0.99), 0.15)

	required, err := f.svc.Dispatch(context.Background(), f.draft.ID, f.draft.CaseID, professional.LevelJunior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !required {
		t.Fatal("junior author must always require peer review")
	}

	a, err := f.repo.GetByOpinion(context.Background(), f.draft.ID)
	if err != nil {
		t.Fatalf("expected pending assignment: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
	if a.RequiredLevel != professional.LevelDistinguished {
		t.Errorf("expected required level DISTINGUISHED, got %s", a.RequiredLevel)
	}
	if len(f.auditRep.entries) != 1 || f.auditRep.entries[0].Action != audit.ActionPeerReviewRequested {
		t.Error("expected peer_review_requested audit entry")
	}
}

func TestDispatch_SampleBelowRateRequired(t *testing.T) {
	f := newFixture(rng.NewFixed(0.01), 0.15)

	required, err := f.svc.Dispatch(context.Background(), f.draft.ID, f.draft.CaseID, professional.LevelSenior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !required {
		t.Fatal("draw below the sampling rate must require review")
	}
}

func TestDispatch_SampleAboveRateNotRequired(t *testing.T) {
	f := newFixture(rng.NewFixed(0.5), 0.15)

	required, err := f.svc.Dispatch(context.Background(), f.draft.ID, f.draft.CaseID, professional.LevelExpert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if required {
		t.Fatal("draw above the sampling rate must not require review")
	}
	if _, err := f.repo.GetByOpinion(context.Background(), f.draft.ID); !errors.Is(err, ErrNotFound) {
		t.Error("no assignment may be created when review is not required")
	}
	if len(f.auditRep.entries) != 0 {
		t.Error("no audit entry may be written when review is not required")
	}
}

func TestDispatch_ZeroRateOnlyJuniors(t *testing.T) {
	f := newFixture(rng.NewFixed(0.0), 0)

	required, err := f.svc.Dispatch(context.Background(), f.draft.ID, f.draft.CaseID, professional.LevelSenior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if required {
		t.Fatal("rate 0 must never sample non-junior signers")
	}
}

func TestComplete_RequiresDistinguishedLevel(t *testing.T) {
	f := newFixture(rng.NewFixed(0), 0.15)
	a := pendingReview(f)

	for _, level := range []professional.Level{
		professional.LevelJunior, professional.LevelSenior, professional.LevelExpert,
	} {
		_, err := f.svc.Complete(context.Background(), a.ID, uuid.New(), level)
		if !errors.Is(err, ErrReviewerLevel) {
			t.Errorf("level %s: expected ErrReviewerLevel, got %v", level, err)
		}
	}
}

func TestComplete_Success(t *testing.T) {
	f := newFixture(rng.NewFixed(0), 0.15)
	a := pendingReview(f)
	reviewerID := uuid.New()

	reviewed, err := f.svc.Complete(context.Background(), a.ID, reviewerID, professional.LevelDistinguished)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewed.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", reviewed.Status)
	}
	if reviewed.ReviewerID == nil || *reviewed.ReviewerID != reviewerID {
		t.Error("expected reviewer to be recorded")
	}
	if f.draft.Status != opinion.StatusSigned {
		t.Errorf("expected draft signed, got %s", f.draft.Status)
	}
	if got := f.caseRepo.store[f.draft.CaseID].Status; got != cases.StatusOpinionSigned {
		t.Errorf("expected case opinion_signed, got %s", got)
	}
	if len(f.auditRep.entries) != 1 || f.auditRep.entries[0].Action != audit.ActionPeerReviewCompleted {
		t.Error("expected peer_review_completed audit entry")
	}
}

func TestComplete_NotPending(t *testing.T) {
	f := newFixture(rng.NewFixed(0), 0.15)
	a := pendingReview(f)
	reviewerID := uuid.New()

	if _, err := f.svc.Complete(context.Background(), a.ID, reviewerID, professional.LevelDistinguished); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	_, err := f.svc.Complete(context.Background(), a.ID, reviewerID, professional.LevelDistinguished)
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestComplete_MissingReview(t *testing.T) {
	f := newFixture(rng.NewFixed(0), 0.15)
	_, err := f.svc.Complete(context.Background(), uuid.New(), uuid.New(), professional.LevelDistinguished)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkDelivered(t *testing.T) {
	f := newFixture(rng.NewFixed(0), 0.15)
	f.draft.Status = opinion.StatusSigned
	f.caseRepo.store[f.draft.CaseID].Status = cases.StatusOpinionSigned

	if err := f.svc.MarkDelivered(context.Background(), f.draft.ID, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.draft.Status != opinion.StatusDelivered {
		t.Errorf("expected draft delivered, got %s", f.draft.Status)
	}
	if got := f.caseRepo.store[f.draft.CaseID].Status; got != cases.StatusDelivered {
		t.Errorf("expected case delivered, got %s", got)
	}
	if len(f.auditRep.entries) != 1 || f.auditRep.entries[0].Action != audit.ActionOpinionDelivered {
		t.Error("expected opinion_delivered audit entry")
	}
}

func TestMarkDelivered_WrongState(t *testing.T) {
	f := newFixture(rng.NewFixed(0), 0.15)
	// Draft still pending peer review.
	err := f.svc.MarkDelivered(context.Background(), f.draft.ID, uuid.New())
	if !errors.Is(err, opinion.ErrWrongState) {
		t.Fatalf("expected ErrWrongState, got %v", err)
	}
}
