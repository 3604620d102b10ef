package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the workflow, one per state-changing operation.
const (
	ActionCaseClaimed         = "case_claimed"
	ActionCaseReleased        = "case_released"
	ActionOpinionFinalized    = "opinion_finalized"
	ActionSignatureApplied    = "digital_signature_applied"
	ActionPeerReviewRequested = "peer_review_requested"
	ActionPeerReviewCompleted = "peer_review_completed"
	ActionOpinionDelivered    = "opinion_delivered"
)

// Entry is an append-only audit record. Details is opaque to the sink.
type Entry struct {
	ID          uuid.UUID              `db:"id" json:"id"`
	EntityType  string                 `db:"entity_type" json:"entity_type"`
	EntityID    uuid.UUID              `db:"entity_id" json:"entity_id"`
	Action      string                 `db:"action" json:"action"`
	PerformedBy uuid.UUID              `db:"performed_by" json:"performed_by"`
	Details     map[string]interface{} `db:"details" json:"details,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
}
