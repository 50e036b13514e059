package featureflag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// Service orchestrates flag storage, caching and change notification.
//
// Every mutation writes the store first, then the cache, then notifies.
// A store failure aborts the operation. Cache failures are logged and
// swallowed on every path, so a stale or missing entry is corrected by the
// next cache miss. Notifier failures are returned as *NotificationError
// alongside the committed flag.
//
// A Service holds no mutable state of its own and is safe for concurrent use.
type Service struct {
	store    Store
	cache    Cache
	notifier Notifier
	engine   *feature.Engine
	logger   *slog.Logger
	ttl      time.Duration
}

// NewService creates a flag service backed by store.
// Without WithCache and WithNotifier it neither caches nor notifies.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		cache:    NoOpCache{},
		notifier: NoOpNotifier{},
		engine:   feature.NewEngine(),
		logger:   slog.Default(),
		ttl:      DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("featureflag"))
	return s
}

// Create validates and persists a new flag, caches the stored version and
// announces it. The returned flag is the one read back from the store.
func (s *Service) Create(ctx context.Context, flag *feature.Flag) (*feature.Flag, error) {
	if err := flag.Validate(); err != nil {
		return nil, err
	}

	id, err := s.store.Insert(ctx, flag.Canonical())
	if err != nil {
		return nil, fmt.Errorf("failed to store feature flag: %w", err)
	}

	created, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, feature.ErrFlagNotFound) {
			return nil, fmt.Errorf("%w: flag %s not found after insert", ErrPersistence, id)
		}
		return nil, fmt.Errorf("failed to read back feature flag: %w", err)
	}

	s.logger.InfoContext(ctx, "feature flag created", logger.FlagCode(created.Code), logger.FlagID(created.ID))
	return s.commit(ctx, created, ChangeCreated)
}

// Get returns the live flag with the given code, reading through the cache.
func (s *Service) Get(ctx context.Context, code string) (*feature.Flag, error) {
	if flag, ok := s.cacheGet(ctx, code); ok {
		return flag, nil
	}

	flag, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, flag)
	return flag, nil
}

// SetEnabled flips the master switch of a flag.
func (s *Service) SetEnabled(ctx context.Context, code string, enabled bool) (*feature.Flag, error) {
	flag, err := s.store.UpdateEnabled(ctx, code, enabled)
	if err != nil {
		return nil, err
	}

	kind := ChangeDisabled
	if enabled {
		kind = ChangeEnabled
	}
	s.logger.InfoContext(ctx, "feature flag switched", logger.FlagCode(code), logger.ChangeKind(string(kind)))
	return s.commit(ctx, flag, kind)
}

// Enable turns a flag on.
func (s *Service) Enable(ctx context.Context, code string) (*feature.Flag, error) {
	return s.SetEnabled(ctx, code, true)
}

// Disable turns a flag off.
func (s *Service) Disable(ctx context.Context, code string) (*feature.Flag, error) {
	return s.SetEnabled(ctx, code, false)
}

// Update replaces the name, description, enabled switch and rule of a flag.
// The code of flag is ignored; a flag's code never changes.
func (s *Service) Update(ctx context.Context, code string, flag *feature.Flag) (*feature.Flag, error) {
	next := flag.Canonical()
	if next == nil {
		return nil, errors.Join(feature.ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	next.Code = code
	if err := next.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, code, next)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "feature flag updated", logger.FlagCode(code))
	return s.commit(ctx, updated, ChangeUpdated)
}

// UpdateProperties applies the non-nil fields of patch to a flag.
// A nil patch rule leaves the current rule in place.
func (s *Service) UpdateProperties(ctx context.Context, code string, patch feature.Patch) (*feature.Flag, error) {
	if err := feature.ValidateRule(patch.Rule); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch.Rule = feature.CanonicalRule(patch.Rule)

	updated, err := s.store.UpdateFields(ctx, code, patch)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "feature flag properties updated", logger.FlagCode(code))
	return s.commit(ctx, updated, ChangeUpdated)
}

// Delete soft-deletes a flag, evicts it from the cache and announces the deletion.
func (s *Service) Delete(ctx context.Context, code string) error {
	deleted, err := s.store.SoftDelete(ctx, code)
	if err != nil {
		return err
	}

	s.cacheDelete(ctx, code)
	s.logger.InfoContext(ctx, "feature flag deleted", logger.FlagCode(code))
	return s.notify(ctx, deleted, ChangeDeleted)
}

// List returns live flags matching q, ordered by code. Listings bypass the cache.
func (s *Service) List(ctx context.Context, q feature.ListQuery) (feature.Page[*feature.Flag], error) {
	if q.Kind != nil && !q.Kind.Valid() {
		return feature.Page[*feature.Flag]{}, fmt.Errorf("%w: %q", feature.ErrUnknownRuleKind, *q.Kind)
	}
	return s.store.Query(ctx, q.Normalize())
}

// ListByRuleKind returns live flags whose rule is of the given kind.
// KindToggle selects flags without a rule.
func (s *Service) ListByRuleKind(ctx context.Context, kind feature.RuleKind, q feature.ListQuery) (feature.Page[*feature.Flag], error) {
	q.Kind = &kind
	return s.List(ctx, q)
}

// IsEnabled reports whether the flag is on for the given evaluation context.
// A disabled flag is off for everyone; an enabled one defers to its rule.
func (s *Service) IsEnabled(ctx context.Context, code string, ec feature.EvalContext) (bool, error) {
	flag, err := s.Get(ctx, code)
	if err != nil {
		return false, err
	}
	if !flag.Enabled {
		return false, nil
	}
	return s.engine.Evaluate(flag.Code, flag.Rule, ec), nil
}

// MetadataValue projects a named attribute of the flag's rule, such as its percentage.
func (s *Service) MetadataValue(ctx context.Context, code, key string) (string, bool, error) {
	flag, err := s.Get(ctx, code)
	if err != nil {
		return "", false, err
	}
	v, ok := s.engine.MetadataValue(flag.Rule, key)
	return v, ok, nil
}

// ClearCache drops every cached flag. Unlike other operations it reports cache errors.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear feature flag cache: %w", err)
	}
	s.logger.InfoContext(ctx, "feature flag cache cleared")
	return nil
}

// commit refreshes the cache entry and announces the change.
func (s *Service) commit(ctx context.Context, flag *feature.Flag, kind ChangeKind) (*feature.Flag, error) {
	s.cacheSet(ctx, flag)
	if err := s.notify(ctx, flag, kind); err != nil {
		return flag, err
	}
	return flag, nil
}

func (s *Service) notify(ctx context.Context, flag *feature.Flag, kind ChangeKind) error {
	if err := s.notifier.Notify(ctx, flag.Clone(), kind); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to notify feature flag change, but it was stored successfully",
			logger.FlagCode(flag.Code),
			logger.ChangeKind(string(kind)),
			logger.Error(err),
		)
		return &NotificationError{Code: flag.Code, Kind: kind, Err: err}
	}
	return nil
}

func (s *Service) cacheGet(ctx context.Context, code string) (*feature.Flag, bool) {
	flag, ok, err := s.cache.Get(ctx, code)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "feature flag cache read failed",
			logger.CacheKey(code),
			logger.Error(err),
		)
		return nil, false
	}
	if ok && flag != nil {
		s.logger.DebugContext(ctx, "feature flag cache hit", logger.CacheKey(code))
		return flag, true
	}
	return nil, false
}

func (s *Service) cacheSet(ctx context.Context, flag *feature.Flag) {
	if err := s.cache.Set(ctx, flag.Code, flag.Clone(), s.ttl); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "feature flag cache write failed",
			logger.CacheKey(flag.Code),
			logger.Error(err),
		)
	}
}

func (s *Service) cacheDelete(ctx context.Context, code string) {
	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "feature flag cache eviction failed",
			logger.CacheKey(code),
			logger.Error(err),
		)
	}
}
