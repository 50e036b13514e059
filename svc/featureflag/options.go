package featureflag

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// DefaultCacheTTL is how long a flag stays cached unless WithCacheTTL says otherwise.
const DefaultCacheTTL = time.Hour

// Option configures a Service.
type Option func(*Service)

// WithCache sets the flag cache. Nil keeps the no-op cache.
func WithCache(c Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithNotifier sets the change notifier. Nil keeps the no-op notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger for the Service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCacheTTL sets the TTL of cache entries written by the Service.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithEngine replaces the evaluation engine, typically to pin its clock in tests.
func WithEngine(e *feature.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}
