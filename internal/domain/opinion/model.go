package opinion

import (
	"time"

	"github.com/google/uuid"
)

// Status is the closed lifecycle state of a second-opinion draft.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusReadyForSignature Status = "ready_for_signature"
	StatusSigned            Status = "signed"
	StatusPendingPeerReview Status = "pending_peer_review"
	StatusDelivered         Status = "delivered"
)

var canTransition = map[Status][]Status{
	StatusDraft:             {StatusReadyForSignature},
	StatusReadyForSignature: {StatusSigned, StatusPendingPeerReview},
	StatusPendingPeerReview: {StatusSigned},
	StatusSigned:            {StatusDelivered},
}

// CanTransitionTo reports whether the draft state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range canTransition[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the draft can no longer change.
func (s Status) Terminal() bool { return s == StatusDelivered }

// Section keys of the second-opinion document. The shape is fixed so the
// completeness check is statically checkable; arbitrary keys are rejected.
const (
	SectionExecutiveSummary = "executive_summary"
	SectionClinicalHistory  = "clinical_history"
	SectionClinicalOpinion  = "clinical_opinion"
	SectionRecommendations  = "recommendations"
	SectionRiskAssessment   = "risk_assessment"
	SectionLimitations      = "limitations"
	SectionAdditionalNotes  = "additional_notes"
)

// sectionOrder is the canonical document order. Hashing, rendering and
// validation all iterate in this order, never in map order.
var sectionOrder = []string{
	SectionExecutiveSummary,
	SectionClinicalHistory,
	SectionClinicalOpinion,
	SectionRecommendations,
	SectionRiskAssessment,
	SectionLimitations,
	SectionAdditionalNotes,
}

var requiredSections = map[string]bool{
	SectionExecutiveSummary: true,
	SectionClinicalHistory:  true,
	SectionClinicalOpinion:  true,
	SectionRecommendations:  true,
	SectionRiskAssessment:   true,
	SectionLimitations:      true,
}

// SectionOrder returns the canonical section key order.
func SectionOrder() []string {
	out := make([]string, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

// KnownSection reports whether key is part of the fixed document shape.
func KnownSection(key string) bool {
	for _, k := range sectionOrder {
		if k == key {
			return true
		}
	}
	return false
}

// RequiredSection reports whether the section must be materially filled
// before the draft may be locked for signature.
func RequiredSection(key string) bool { return requiredSections[key] }

// Section is one titled block of the opinion document.
type Section struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Editable bool   `json:"editable"`
	Required bool   `json:"required"`
}

// Sections maps section key to content. Only keys from the fixed shape are
// accepted; ordering is always sectionOrder, not map order.
type Sections map[string]Section

// Draft is the single non-terminal second-opinion document for one
// (case, professional) pair.
type Draft struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	CaseID         uuid.UUID  `db:"case_id" json:"case_id"`
	ProfessionalID uuid.UUID  `db:"professional_id" json:"professional_id"`
	Sections       Sections   `db:"sections" json:"sections"`
	Status         Status     `db:"status" json:"status"`
	EditSequence   int        `db:"edit_sequence" json:"edit_sequence"`
	LastModified   time.Time  `db:"last_modified" json:"last_modified"`
	FinalizedAt    *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// NewSections returns a skeleton document with every section present, empty
// and editable. Titles follow the fixed shape.
func NewSections() Sections {
	titles := map[string]string{
		SectionExecutiveSummary: "Executive Summary",
		SectionClinicalHistory:  "Clinical History",
		SectionClinicalOpinion:  "Clinical Opinion",
		SectionRecommendations:  "Recommendations",
		SectionRiskAssessment:   "Risk Assessment",
		SectionLimitations:      "Limitations",
		SectionAdditionalNotes:  "Additional Notes",
	}
	s := make(Sections, len(sectionOrder))
	for _, key := range sectionOrder {
		s[key] = Section{
			Title:    titles[key],
			Editable: true,
			Required: requiredSections[key],
		}
	}
	return s
}
