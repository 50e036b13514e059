package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender posts JSON payloads with retries, optional signing and circuit breaking.
// Use NewSender to create instances.
type Sender struct {
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    BackoffStrategy
	secret     string
	headers    http.Header
	breaker    *CircuitBreaker
	userAgent  string
}

// NewSender creates a sender with a pooled HTTP client and default retry policy.
func NewSender(opts ...Option) *Sender {
	s := &Sender{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:    10 * time.Second,
		maxRetries: 3,
		backoff:    DefaultBackoffStrategy(),
		headers:    make(http.Header),
		userAgent:  "flagkit-webhook/1.0",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send marshals data to JSON and POSTs it to webhookURL.
// Any non-2xx response is a failure. 4xx responses other than 408, 425 and
// 429 are permanent and are not retried.
func (s *Sender) Send(ctx context.Context, webhookURL string, data any) error {
	if err := validateURL(webhookURL); err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if s.breaker != nil && !s.breaker.Allow() {
		return ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff.NextInterval(attempt)):
			}
		}

		status, err := s.post(ctx, webhookURL, payload)
		if s.breaker != nil {
			if err == nil {
				s.breaker.RecordSuccess()
			} else {
				s.breaker.RecordFailure()
			}
		}
		if err == nil {
			return nil
		}
		lastErr = err
		if isPermanent(status) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, s.maxRetries+1, lastErr)
}

func (s *Sender) post(ctx context.Context, webhookURL string, payload []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range s.headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	if s.secret != "" {
		SetSignature(req.Header, s.secret, payload, time.Now())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.TrimSpace(strings.ReplaceAll(string(body), "\n", " "))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, msg)
}

func validateURL(webhookURL string) error {
	if webhookURL == "" {
		return errors.Join(ErrInvalidURL, errors.New("URL is required"))
	}
	u, err := url.Parse(webhookURL)
	if err != nil {
		return errors.Join(ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Join(ErrInvalidURL, errors.New("only http and https schemes are supported"))
	}
	if u.Host == "" {
		return errors.Join(ErrInvalidURL, errors.New("host is required"))
	}
	return nil
}

func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}
