// Package matching computes the 0-100 compatibility score between a
// professional's profile and a case's requirements.
//
// Weights (sum 100):
//
//	level compatibility  40  exact match; over-qualification decays 5/level
//	subspecialty overlap 30  case category within the professional's tags
//	availability         20  scaled by remaining case-load headroom
//	fairness jitter      10  uniform random, avoids deterministic starvation
package matching

import (
	"fmt"
	"strings"

	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/rng"
)

const (
	levelExactWeight   = 40
	levelOverQualBase  = 30
	levelOverQualDecay = 5
	overlapWeight      = 30
	availabilityWeight = 20
	jitterWeight       = 10
)

// Result carries the score and the display-only reasons behind it. Reasons
// carry no authority; eligibility is the only gating output.
type Result struct {
	Score    int      `json:"score"`
	Eligible bool     `json:"-"`
	Reasons  []string `json:"reasons"`
}

// Score is pure and deterministic given identical inputs and random source.
// A professional below the requested level is ineligible and must never
// appear in listings, so no score is produced for that combination.
func Score(p *professional.Profile, c *cases.Case, src rng.Source) Result {
	if !p.Level.CanServe(c.RequestedLevel) {
		return Result{Eligible: false, Reasons: []string{
			fmt.Sprintf("level %s below required %s", p.Level, c.RequestedLevel),
		}}
	}

	var score float64
	var reasons []string

	gap := p.Level.Rank() - c.RequestedLevel.Rank()
	switch {
	case gap == 0:
		score += levelExactWeight
		reasons = append(reasons, fmt.Sprintf("exact level match (%s)", p.Level))
	default:
		pts := levelOverQualBase - levelOverQualDecay*(gap-1)
		if pts < 0 {
			pts = 0
		}
		score += float64(pts)
		reasons = append(reasons, fmt.Sprintf("over-qualified by %d level(s)", gap))
	}

	if categoryMatches(p.Subspecialties, c.Category) {
		score += overlapWeight
		reasons = append(reasons, fmt.Sprintf("subspecialty covers %q", c.Category))
	}

	score += availability(p)
	reasons = append(reasons, fmt.Sprintf("current load %d/%d", p.CurrentLoad, p.MaxLoad))

	score += src.Float64() * jitterWeight

	final := int(score)
	if final > 100 {
		final = 100
	}
	if final < 0 {
		final = 0
	}
	return Result{Score: final, Eligible: true, Reasons: reasons}
}

// availability scales the 20-point weight by remaining load headroom. With no
// known maximum the full baseline applies.
func availability(p *professional.Profile) float64 {
	if p.MaxLoad <= 0 {
		return availabilityWeight
	}
	load := float64(p.CurrentLoad) / float64(p.MaxLoad)
	if load > 1 {
		load = 1
	}
	return availabilityWeight * (1 - load)
}

// categoryMatches checks substring containment in either direction between
// the case category and each subspecialty tag, case-insensitively.
func categoryMatches(tags []string, category string) bool {
	cat := strings.ToLower(strings.TrimSpace(category))
	if cat == "" {
		return false
	}
	for _, t := range tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		if strings.Contains(tag, cat) || strings.Contains(cat, tag) {
			return true
		}
	}
	return false
}
