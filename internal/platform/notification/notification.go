// Package notification delivers best-effort workflow events (case claimed,
// opinion signed) to an external notification service. Delivery failures are
// logged and swallowed: the committed state transition is the source of truth
// and must never be rolled back because a notification could not be sent.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is a single outbound workflow notification.
type Event struct {
	Kind           string    `json:"kind"`
	CaseID         uuid.UUID `json:"case_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	OpinionID      uuid.UUID `json:"opinion_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

const (
	KindCaseClaimed       = "case_claimed"
	KindOpinionSigned     = "opinion_signed"
	KindPeerReviewPending = "peer_review_pending"
)

// Notifier publishes workflow events fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// WebhookNotifier posts events as JSON to a configured webhook endpoint.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger zerolog.Logger
}

// NewWebhookNotifier builds a notifier for the given endpoint. Retries twice
// with a short backoff; anything still failing is logged and dropped.
func NewWebhookNotifier(url string, logger zerolog.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	return &WebhookNotifier{client: client, url: url, logger: logger}
}

func (n *WebhookNotifier) Notify(ctx context.Context, ev Event) {
	if n.url == "" {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	// Detach from the request context: the workflow response must not wait
	// on, or be cancelled together with, notification delivery.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := n.client.R().
			SetContext(sendCtx).
			SetHeader("Content-Type", "application/json").
			SetBody(ev).
			Post(n.url)
		if err != nil {
			n.logger.Warn().Err(err).Str("kind", ev.Kind).
				Str("case_id", ev.CaseID.String()).
				Msg("notification delivery failed")
			return
		}
		if resp.IsError() {
			n.logger.Warn().Int("status", resp.StatusCode()).Str("kind", ev.Kind).
				Str("case_id", ev.CaseID.String()).
				Msg("notification endpoint returned error")
		}
	}()
}

// NopNotifier discards all events. Used when no webhook is configured and in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}

var _ Notifier = (*WebhookNotifier)(nil)
var _ Notifier = NopNotifier{}

// String implements fmt.Stringer for log output.
func (ev Event) String() string {
	return fmt.Sprintf("%s case=%s professional=%s", ev.Kind, ev.CaseID, ev.ProfessionalID)
}
