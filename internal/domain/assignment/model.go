package assignment

import (
	"time"

	"github.com/google/uuid"
)

// Status of a CaseAssignment record. Records are append-only: a release
// marks the row released rather than deleting it.
type Status string

const (
	StatusAssigned Status = "assigned"
	StatusReleased Status = "released"
)

// CaseAssignment binds one professional to one case. The store enforces at
// most one assigned record per case at any time.
type CaseAssignment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	CaseID         uuid.UUID  `db:"case_id" json:"case_id"`
	ProfessionalID uuid.UUID  `db:"professional_id" json:"professional_id"`
	Status         Status     `db:"status" json:"status"`
	AssignedAt     time.Time  `db:"assigned_at" json:"assigned_at"`
	ReleasedAt     *time.Time `db:"released_at" json:"released_at,omitempty"`
}
