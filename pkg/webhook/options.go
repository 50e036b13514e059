package webhook

import (
	"net/http"
	"time"
)

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient replaces the HTTP client. Nil is ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout sets the per-attempt timeout. Default is 10 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Sender) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
// Default is 3; zero disables retries.
func WithMaxRetries(n int) Option {
	return func(s *Sender) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithBackoff sets the retry backoff strategy.
func WithBackoff(strategy BackoffStrategy) Option {
	return func(s *Sender) {
		if strategy != nil {
			s.backoff = strategy
		}
	}
}

// WithSecret enables HMAC-SHA256 request signing.
func WithSecret(secret string) Option {
	return func(s *Sender) {
		s.secret = secret
	}
}

// WithHeaders adds static headers to every request. Empty keys or values are skipped.
func WithHeaders(headers map[string]string) Option {
	return func(s *Sender) {
		for k, v := range headers {
			if k != "" && v != "" {
				s.headers.Set(k, v)
			}
		}
	}
}

// WithCircuitBreaker guards the sender with cb.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(s *Sender) {
		s.breaker = cb
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Sender) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}
