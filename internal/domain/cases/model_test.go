package cases

import "testing"

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPendingAssignment, StatusAssigned},
		{StatusAssigned, StatusReadyForSignature},
		{StatusAssigned, StatusPendingAssignment},
		{StatusReadyForSignature, StatusOpinionSigned},
		{StatusReadyForSignature, StatusPendingPeerReview},
		{StatusPendingPeerReview, StatusOpinionSigned},
		{StatusOpinionSigned, StatusDelivered},
		{StatusDelivered, StatusClosed},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransitionTo(tt.to) {
			t.Errorf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPendingAssignment, StatusReadyForSignature},
		{StatusPendingAssignment, StatusDelivered},
		{StatusAssigned, StatusOpinionSigned},
		{StatusOpinionSigned, StatusPendingAssignment},
		{StatusDelivered, StatusAssigned},
		{StatusClosed, StatusPendingAssignment},
		{StatusPendingPeerReview, StatusDelivered},
	}
	for _, tt := range denied {
		if tt.from.CanTransitionTo(tt.to) {
			t.Errorf("expected %s -> %s to be rejected", tt.from, tt.to)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusPendingAssignment, StatusAssigned, StatusReadyForSignature,
		StatusOpinionSigned, StatusPendingPeerReview, StatusDelivered, StatusClosed,
	} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("in_review").Valid() {
		t.Error("free-form status must be rejected")
	}
}
