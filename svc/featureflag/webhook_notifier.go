package featureflag

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/webhook"
)

// WebhookMessage is the JSON body posted for a flag change.
// The text field makes it directly usable as a Slack incoming webhook.
type WebhookMessage struct {
	Text   string     `json:"text"`
	Code   string     `json:"code"`
	Change ChangeKind `json:"change"`
}

// WebhookNotifier posts flag changes to an HTTP endpoint.
type WebhookNotifier struct {
	url      string
	sender   *webhook.Sender
	excluded map[ChangeKind]struct{}
}

// WebhookNotifierOption configures a WebhookNotifier.
type WebhookNotifierOption func(*WebhookNotifier)

// WithExcludedChanges suppresses notifications of the given kinds.
// Excluded changes make no request and never fail.
func WithExcludedChanges(kinds ...ChangeKind) WebhookNotifierOption {
	return func(n *WebhookNotifier) {
		for _, k := range kinds {
			n.excluded[k] = struct{}{}
		}
	}
}

// WithSender replaces the webhook sender.
func WithSender(s *webhook.Sender) WebhookNotifierOption {
	return func(n *WebhookNotifier) {
		if s != nil {
			n.sender = s
		}
	}
}

// NewWebhookNotifier creates a notifier posting to url.
func NewWebhookNotifier(url string, opts ...WebhookNotifierOption) *WebhookNotifier {
	n := &WebhookNotifier{
		url:      url,
		sender:   webhook.NewSender(),
		excluded: make(map[ChangeKind]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *WebhookNotifier) Notify(ctx context.Context, flag *feature.Flag, kind ChangeKind) error {
	if _, skip := n.excluded[kind]; skip {
		return nil
	}
	return n.sender.Send(ctx, n.url, NewWebhookMessage(flag.Code, kind))
}

// NewWebhookMessage builds the message announcing a change of the flag with the given code.
func NewWebhookMessage(code string, kind ChangeKind) WebhookMessage {
	return WebhookMessage{
		Text:   fmt.Sprintf("Feature Flag[Code=`%s`] has been %s", code, kind),
		Code:   code,
		Change: kind,
	}
}
