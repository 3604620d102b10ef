package cases

import (
	"time"

	"github.com/google/uuid"

	"github.com/workplace/workplace/internal/domain/professional"
)

// Status is the closed lifecycle state of a medical case. All writes go
// through the transition table below; free-form status strings are rejected.
type Status string

const (
	StatusPendingAssignment   Status = "pending_assignment"
	StatusAssigned            Status = "assigned_to_professional"
	StatusReadyForSignature   Status = "opinion_ready_for_signature"
	StatusOpinionSigned       Status = "opinion_signed"
	StatusPendingPeerReview   Status = "pending_peer_review"
	StatusDelivered           Status = "delivered"
	StatusClosed              Status = "closed"
)

var canTransition = map[Status][]Status{
	StatusPendingAssignment: {StatusAssigned, StatusClosed},
	StatusAssigned:          {StatusReadyForSignature, StatusPendingAssignment, StatusClosed},
	StatusReadyForSignature: {StatusOpinionSigned, StatusPendingPeerReview, StatusAssigned},
	StatusPendingPeerReview: {StatusOpinionSigned, StatusClosed},
	StatusOpinionSigned:     {StatusDelivered, StatusClosed},
	StatusDelivered:         {StatusClosed},
}

// Valid reports whether s is a known case status.
func (s Status) Valid() bool {
	if s == StatusClosed {
		return true
	}
	_, ok := canTransition[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range canTransition[s] {
		if t == next {
			return true
		}
	}
	return false
}

// unclaimedStatuses is the set of statuses under which a case is eligible to
// appear in the directory.
var unclaimedStatuses = []Status{StatusPendingAssignment}

// UnclaimedStatuses returns the directory-eligible status set.
func UnclaimedStatuses() []Status { return unclaimedStatuses }

// Case is a medical case requesting a second opinion. This workflow reads
// most fields and writes only the assignment fields and status.
type Case struct {
	ID                     uuid.UUID          `db:"id" json:"id"`
	Title                  string             `db:"title" json:"title"`
	Category               string             `db:"category" json:"category"`
	RequestedLevel         professional.Level `db:"requested_level" json:"requested_level"`
	Status                 Status             `db:"status" json:"status"`
	AssignedProfessionalID *uuid.UUID         `db:"assigned_professional_id" json:"assigned_professional_id,omitempty"`
	AssignedAt             *time.Time         `db:"assigned_at" json:"assigned_at,omitempty"`
	CreatedAt              time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `db:"updated_at" json:"updated_at"`
}
