// Package directory lists unclaimed cases visible to a professional,
// annotated with match scores. Read-only: listing has no side effects.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/domain/matching"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/cache"
	"github.com/workplace/workplace/internal/platform/rng"
)

// candidateFetchCap bounds the scored working set per listing request.
const candidateFetchCap = 500

// Entry is one directory row: a case with its computed match score.
type Entry struct {
	Case    *cases.Case `json:"case"`
	Score   int         `json:"score"`
	Reasons []string    `json:"reasons"`
}

// Filters narrows a directory listing.
type Filters struct {
	Category string
}

type Service struct {
	caseRepo cases.Repository
	profRepo professional.Repository
	cache    cache.Cache
	cacheTTL time.Duration
	random   rng.Source
	logger   zerolog.Logger
}

func NewService(caseRepo cases.Repository, profRepo professional.Repository, c cache.Cache, cacheTTL time.Duration, random rng.Source, logger zerolog.Logger) *Service {
	return &Service{
		caseRepo: caseRepo,
		profRepo: profRepo,
		cache:    c,
		cacheTTL: cacheTTL,
		random:   random,
		logger:   logger,
	}
}

// ListAvailable returns the page of unclaimed cases the professional may
// serve, sorted by score descending with ties broken oldest-first so no case
// waits unboundedly behind equally-scored newer ones.
//
// Scores include the fairness jitter and are computed fresh on every call;
// only the candidate rows are cached.
func (s *Service) ListAvailable(ctx context.Context, prof *professional.Profile, f Filters, limit, offset int) ([]*Entry, int, error) {
	candidates, err := s.candidates(ctx, prof.Level, f.Category)
	if err != nil {
		return nil, 0, fmt.Errorf("list unclaimed cases: %w", err)
	}

	entries := make([]*Entry, 0, len(candidates))
	for _, c := range candidates {
		res := matching.Score(prof, c, s.random)
		if !res.Eligible {
			continue
		}
		entries = append(entries, &Entry{Case: c, Score: res.Score, Reasons: res.Reasons})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Case.CreatedAt.Before(entries[j].Case.CreatedAt)
	})

	total := len(entries)
	if offset >= total {
		return []*Entry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return entries[offset:end], total, nil
}

// candidates loads the unclaimed cases servable at the given level, through
// the short-TTL cache. Cache failures degrade to direct reads.
func (s *Service) candidates(ctx context.Context, level professional.Level, category string) ([]*cases.Case, error) {
	key := fmt.Sprintf("directory:candidates:%s:%s", level, category)

	if b, err := s.cache.Get(ctx, key); err == nil {
		var cached []*cases.Case
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	items, err := s.caseRepo.ListUnclaimed(ctx, level.ServableLevels(), category, candidateFetchCap)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, b, s.cacheTTL); err != nil {
			s.logger.Debug().Err(err).Msg("directory cache write failed")
		}
	}
	return items, nil
}
