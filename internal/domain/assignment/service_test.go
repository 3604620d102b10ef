package assignment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workplace/workplace/internal/domain/audit"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/notification"
)

// -- Mocks --

// caseState is what the conditional claim update guards in production.
type caseState struct {
	requiredLevel professional.Level
	assignee      *uuid.UUID
}

type mockAssignmentRepo struct {
	mu          sync.Mutex
	cases       map[uuid.UUID]*caseState
	assignments map[uuid.UUID]*CaseAssignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{
		cases:       make(map[uuid.UUID]*caseState),
		assignments: make(map[uuid.UUID]*CaseAssignment),
	}
}

func (m *mockAssignmentRepo) addCase(id uuid.UUID, required professional.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[id] = &caseState{requiredLevel: required}
}

// ClaimCase mirrors the compare-and-swap the SQL performs: check and write
// under one lock, success only when no assignee is present and the claimer's
// level serves the case. Under-level reads as not-found before the conflict
// check, same as the probe query in production.
func (m *mockAssignmentRepo) ClaimCase(_ context.Context, caseID, professionalID uuid.UUID, level professional.Level, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.cases[caseID]
	if !ok {
		return ErrNotFound
	}
	if !level.CanServe(cs.requiredLevel) {
		return ErrNotFound
	}
	if cs.assignee != nil {
		return ErrConflict
	}
	pid := professionalID
	cs.assignee = &pid
	return nil
}

func (m *mockAssignmentRepo) ReleaseCase(_ context.Context, caseID, professionalID uuid.UUID, override bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.cases[caseID]
	if !ok {
		return ErrNotFound
	}
	if cs.assignee == nil {
		return ErrNotAssignee
	}
	if !override && *cs.assignee != professionalID {
		return ErrNotAssignee
	}
	cs.assignee = nil
	return nil
}

func (m *mockAssignmentRepo) Insert(_ context.Context, a *CaseAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *mockAssignmentRepo) MarkReleased(_ context.Context, caseID, professionalID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.CaseID == caseID && a.ProfessionalID == professionalID && a.Status == StatusAssigned {
			a.Status = StatusReleased
			a.ReleasedAt = &at
		}
	}
	return nil
}

func (m *mockAssignmentRepo) GetActiveByCase(_ context.Context, caseID uuid.UUID) (*CaseAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.CaseID == caseID && a.Status == StatusAssigned {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockAssignmentRepo) HasActive(_ context.Context, caseID, professionalID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.CaseID == caseID && a.ProfessionalID == professionalID && a.Status == StatusAssigned {
			return true, nil
		}
	}
	return false, nil
}

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (m *mockAuditRepo) Append(_ context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAuditRepo) ListByEntity(_ context.Context, _ string, _ uuid.UUID, _, _ int) ([]*audit.Entry, int, error) {
	return nil, 0, nil
}

func (m *mockAuditRepo) List(_ context.Context, _ string, _, _ int) ([]*audit.Entry, int, error) {
	return nil, 0, nil
}

func (m *mockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

type passRunner struct{}

func (passRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo Repository, auditRepo *mockAuditRepo) *Service {
	return NewService(repo, audit.NewService(auditRepo), passRunner{},
		notification.NopNotifier{}, zerolog.Nop())
}

// -- Tests --

func TestClaim_Success(t *testing.T) {
	repo := newMockAssignmentRepo()
	auditRepo := &mockAuditRepo{}
	svc := newTestService(repo, auditRepo)

	caseID := uuid.New()
	repo.addCase(caseID, professional.LevelSenior)
	profID := uuid.New()

	a, err := svc.Claim(context.Background(), caseID, profID, professional.LevelSenior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected assignment ID to be set")
	}
	if a.Status != StatusAssigned {
		t.Errorf("expected status %s, got %s", StatusAssigned, a.Status)
	}
	if got := auditRepo.actions(); len(got) != 1 || got[0] != audit.ActionCaseClaimed {
		t.Errorf("expected one %s audit entry, got %v", audit.ActionCaseClaimed, got)
	}
}

func TestClaim_ExactlyOneWinnerUnderContention(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestService(repo, &mockAuditRepo{})

	caseID := uuid.New()
	repo.addCase(caseID, professional.LevelSenior)

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelSenior)
		}(i)
	}
	wg.Wait()

	winners, conflicts := 0, 0
	for _, err := range errs {
		switch err {
		case nil:
			winners++
		case ErrConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners)
	}
	if conflicts != n-1 {
		t.Errorf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

func TestClaim_MissingCase(t *testing.T) {
	svc := newTestService(newMockAssignmentRepo(), &mockAuditRepo{})

	_, err := svc.Claim(context.Background(), uuid.New(), uuid.New(), professional.LevelSenior)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClaim_AlreadyAssigned(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestService(repo, &mockAuditRepo{})

	caseID := uuid.New()
	repo.addCase(caseID, professional.LevelSenior)

	if _, err := svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelSenior); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if _, err := svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelSenior); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestClaim_UnderLevelReadsAsNotFound(t *testing.T) {
	repo := newMockAssignmentRepo()
	auditRepo := &mockAuditRepo{}
	svc := newTestService(repo, auditRepo)

	caseID := uuid.New()
	repo.addCase(caseID, professional.LevelExpert)

	for _, level := range []professional.Level{professional.LevelJunior, professional.LevelSenior} {
		if _, err := svc.Claim(context.Background(), caseID, uuid.New(), level); err != ErrNotFound {
			t.Errorf("%s claiming an EXPERT case: expected ErrNotFound, got %v", level, err)
		}
	}
	if got := auditRepo.actions(); len(got) != 0 {
		t.Errorf("denied claims must not leave audit entries, got %v", got)
	}

	if _, err := svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelDistinguished); err != nil {
		t.Fatalf("DISTINGUISHED claiming an EXPERT case: %v", err)
	}
}

func TestClaim_UnderLevelOnAssignedCaseStillNotFound(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestService(repo, &mockAuditRepo{})

	caseID := uuid.New()
	repo.addCase(caseID, professional.LevelExpert)

	if _, err := svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelExpert); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	// An under-level claimer never learns the case exists, let alone that it
	// is taken.
	if _, err := svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelJunior); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRelease_ByAssignee(t *testing.T) {
	repo := newMockAssignmentRepo()
	auditRepo := &mockAuditRepo{}
	svc := newTestService(repo, auditRepo)

	caseID := uuid.New()
	repo.addCase(caseID, professional.LevelSenior)
	profID := uuid.New()

	if _, err := svc.Claim(context.Background(), caseID, profID, professional.LevelSenior); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := svc.Release(context.Background(), caseID, profID, false); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Case is claimable again.
	if _, err := svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelSenior); err != nil {
		t.Fatalf("expected released case to be claimable, got %v", err)
	}

	got := auditRepo.actions()
	if len(got) != 3 || got[1] != audit.ActionCaseReleased {
		t.Errorf("expected claim/release/claim audit trail, got %v", got)
	}
}

func TestRelease_NonAssigneeDenied(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestService(repo, &mockAuditRepo{})

	caseID := uuid.New()
	repo.addCase(caseID, professional.LevelSenior)

	if _, err := svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelSenior); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := svc.Release(context.Background(), caseID, uuid.New(), false); err != ErrNotAssignee {
		t.Fatalf("expected ErrNotAssignee, got %v", err)
	}
}

func TestRelease_AdminOverride(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestService(repo, &mockAuditRepo{})

	caseID := uuid.New()
	repo.addCase(caseID, professional.LevelSenior)

	if _, err := svc.Claim(context.Background(), caseID, uuid.New(), professional.LevelSenior); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := svc.Release(context.Background(), caseID, uuid.New(), true); err != nil {
		t.Fatalf("override release failed: %v", err)
	}
}
