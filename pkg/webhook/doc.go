// Package webhook delivers JSON payloads to HTTP endpoints.
//
// A Sender is configured once and reused:
//
//	sender := webhook.NewSender(
//		webhook.WithSecret(secret),
//		webhook.WithMaxRetries(2),
//		webhook.WithCircuitBreaker(webhook.NewCircuitBreaker(5, 2, 30*time.Second)),
//	)
//	err := sender.Send(ctx, "https://hooks.example.com/flags", payload)
//
// Failed attempts are retried with the configured BackoffStrategy. Client
// errors (4xx) stop the retry loop immediately, except 408, 425 and 429.
// When a secret is set, every request carries X-Webhook-Timestamp and an
// X-Webhook-Signature holding the hex HMAC-SHA256 of "<timestamp>.<body>";
// receivers check it with VerifySignature.
package webhook
