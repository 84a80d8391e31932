// Package notify delivers proposal-opened notifications to consumer teams.
// It is a best-effort external collaborator (spec §6): delivery failures
// never roll back the publish transaction that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Event is the payload delivered to each notified consumer team.
type Event struct {
	Type           string    `json:"type"`
	ProposalID     string    `json:"proposal_id"`
	AssetID        string    `json:"asset_id"`
	ConsumerTeamID string    `json:"consumer_team_id"`
	ChangeType     string    `json:"change_type"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notifier delivers an Event to one or more consumer teams. Implementations
// must not block the caller indefinitely; NotifyAll fans out concurrently
// and reports the first delivery error.
type Notifier interface {
	NotifyAll(ctx context.Context, events []Event) error
}

// WebhookNotifier posts each Event as JSON to a per-team webhook URL
// resolved by resolveURL. Deliveries fan out with errgroup the way the
// teacher's worker command fans out its background jobs.
type WebhookNotifier struct {
	client      *http.Client
	baseURL     string
	maxParallel int
}

func NewWebhookNotifier(baseURL string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		client:      &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		maxParallel: 8,
	}
}

// NotifyAll posts to base_url/teams/{team_id}/webhook for every event.
// Every delivery failure is logged; the first one is returned and cancels
// the context of the deliveries still running or not yet started.
func (n *WebhookNotifier) NotifyAll(ctx context.Context, events []Event) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.maxParallel)

	for _, event := range events {
		event := event
		g.Go(func() error {
			if err := n.deliver(gctx, event); err != nil {
				slog.Error("webhook delivery failed", "consumer_team_id", event.ConsumerTeamID, "proposal_id", event.ProposalID, "error", err)
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func (n *WebhookNotifier) deliver(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	url := fmt.Sprintf("%s/teams/%s/webhook", n.baseURL, event.ConsumerTeamID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier discards every event. Used when no webhook base URL is
// configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyAll(ctx context.Context, events []Event) error { return nil }
