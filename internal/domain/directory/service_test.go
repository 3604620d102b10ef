package directory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/cache"
	"github.com/workplace/workplace/internal/platform/rng"
)

// -- Mocks --

// mockCaseRepo returns its fixed set unfiltered, so the test also covers the
// service-side eligibility gate.
type mockCaseRepo struct {
	unclaimed []*cases.Case
}

func (m *mockCaseRepo) GetByID(_ context.Context, id uuid.UUID) (*cases.Case, error) {
	for _, c := range m.unclaimed {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, cases.ErrNotFound
}

func (m *mockCaseRepo) ListUnclaimed(_ context.Context, _ []professional.Level, category string, limit int) ([]*cases.Case, error) {
	var out []*cases.Case
	for _, c := range m.unclaimed {
		if category != "" && c.Category != category {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockCaseRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _, _ cases.Status) error {
	return nil
}

type mockProfRepo struct{}

func (mockProfRepo) GetByID(_ context.Context, _ uuid.UUID) (*professional.Profile, error) {
	return nil, nil
}

func unclaimedCase(level professional.Level, category string, age time.Duration) *cases.Case {
	return &cases.Case{
		ID:             uuid.New(),
		Title:          "case",
		Category:       category,
		RequestedLevel: level,
		Status:         cases.StatusPendingAssignment,
		CreatedAt:      time.Now().Add(-age),
	}
}

func newTestService(repo *mockCaseRepo) *Service {
	return NewService(repo, mockProfRepo{}, cache.Nop{}, 0, rng.NewFixed(0), zerolog.Nop())
}

// -- Tests --

func TestListAvailable_OrdersByScoreDescending(t *testing.T) {
	prof := &professional.Profile{
		ID:             uuid.New(),
		Level:          professional.LevelSenior,
		Subspecialties: []string{"oncology"},
		CurrentLoad:    0,
		MaxLoad:        10,
	}
	// Exact level + overlap beats exact level without overlap beats
	// over-qualification target.
	best := unclaimedCase(professional.LevelSenior, "oncology", time.Hour)
	mid := unclaimedCase(professional.LevelSenior, "cardiology", time.Hour)
	low := unclaimedCase(professional.LevelJunior, "cardiology", time.Hour)
	repo := &mockCaseRepo{unclaimed: []*cases.Case{low, mid, best}}

	entries, total, err := newTestService(repo).ListAvailable(context.Background(), prof, Filters{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d (total %d)", len(entries), total)
	}
	if entries[0].Case.ID != best.ID || entries[1].Case.ID != mid.ID || entries[2].Case.ID != low.ID {
		t.Errorf("wrong order: scores %d, %d, %d", entries[0].Score, entries[1].Score, entries[2].Score)
	}
}

func TestListAvailable_ExcludesAboveLevelCases(t *testing.T) {
	prof := &professional.Profile{ID: uuid.New(), Level: professional.LevelSenior, MaxLoad: 10}
	visible := unclaimedCase(professional.LevelJunior, "oncology", time.Hour)
	hidden := unclaimedCase(professional.LevelDistinguished, "oncology", time.Hour)
	repo := &mockCaseRepo{unclaimed: []*cases.Case{visible, hidden}}

	entries, total, err := newTestService(repo).ListAvailable(context.Background(), prof, Filters{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Case.ID != visible.ID {
		t.Error("above-level case leaked into the listing")
	}
}

func TestListAvailable_TieBrokenByAge(t *testing.T) {
	prof := &professional.Profile{ID: uuid.New(), Level: professional.LevelSenior, MaxLoad: 10}
	older := unclaimedCase(professional.LevelSenior, "oncology", 48*time.Hour)
	newer := unclaimedCase(professional.LevelSenior, "oncology", time.Hour)
	repo := &mockCaseRepo{unclaimed: []*cases.Case{newer, older}}

	entries, _, err := newTestService(repo).ListAvailable(context.Background(), prof, Filters{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].Case.ID != older.ID {
		t.Error("equal scores must list the older case first")
	}
}

func TestListAvailable_CategoryFilter(t *testing.T) {
	prof := &professional.Profile{ID: uuid.New(), Level: professional.LevelSenior, MaxLoad: 10}
	onc := unclaimedCase(professional.LevelSenior, "oncology", time.Hour)
	card := unclaimedCase(professional.LevelSenior, "cardiology", time.Hour)
	repo := &mockCaseRepo{unclaimed: []*cases.Case{onc, card}}

	entries, total, err := newTestService(repo).ListAvailable(context.Background(), prof,
		Filters{Category: "oncology"}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || entries[0].Case.ID != onc.ID {
		t.Errorf("expected only the oncology case, got %d entries", len(entries))
	}
}

func TestListAvailable_Pagination(t *testing.T) {
	prof := &professional.Profile{ID: uuid.New(), Level: professional.LevelSenior, MaxLoad: 10}
	var all []*cases.Case
	for i := 0; i < 5; i++ {
		all = append(all, unclaimedCase(professional.LevelSenior, "oncology", time.Duration(i)*time.Hour))
	}
	repo := &mockCaseRepo{unclaimed: all}
	svc := newTestService(repo)

	page, total, err := svc.ListAvailable(context.Background(), prof, Filters{}, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Errorf("expected page of 2 from 5, got %d (total %d)", len(page), total)
	}

	tail, total, err := svc.ListAvailable(context.Background(), prof, Filters{}, 2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 || len(tail) != 1 {
		t.Errorf("expected final page of 1, got %d", len(tail))
	}

	empty, total, err := svc.ListAvailable(context.Background(), prof, Filters{}, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 || len(empty) != 0 {
		t.Errorf("offset past the end must return an empty page, got %d", len(empty))
	}
}
