package peerreview

import (
	"time"

	"github.com/google/uuid"

	"github.com/workplace/workplace/internal/domain/professional"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Assignment routes a signed opinion through the additional review gate
// before delivery. Created only when the dispatcher decides review is
// required.
type Assignment struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	OpinionID     uuid.UUID          `db:"opinion_id" json:"opinion_id"`
	CaseID        uuid.UUID          `db:"case_id" json:"case_id"`
	Status        Status             `db:"status" json:"status"`
	RequiredLevel professional.Level `db:"required_level" json:"required_level"`
	ReviewerID    *uuid.UUID         `db:"reviewer_id" json:"reviewer_id,omitempty"`
	AssignedAt    time.Time          `db:"assigned_at" json:"assigned_at"`
	CompletedAt   *time.Time         `db:"completed_at" json:"completed_at,omitempty"`
}
