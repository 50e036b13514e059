package featureflag

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// MemoryStore is an in-memory Store.
// It's useful for testing and single-process deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	flags  map[uuid.UUID]*feature.Flag
	byCode map[string]uuid.UUID // live flags only
	now    func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithStoreClock replaces the clock used for timestamps.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		flags:  make(map[uuid.UUID]*feature.Flag),
		byCode: make(map[string]uuid.UUID),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) Insert(_ context.Context, flag *feature.Flag) (uuid.UUID, error) {
	if flag == nil {
		return uuid.Nil, errors.Join(feature.ErrInvalidFlag, errors.New("flag cannot be nil"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byCode[flag.Code]; exists {
		return uuid.Nil, feature.ErrFlagExists
	}

	stored := flag.Canonical()
	stored.ID = uuid.New()
	stored.CreatedAt = m.now().UTC()
	stored.UpdatedAt = nil
	stored.DeletedAt = nil

	m.flags[stored.ID] = stored
	m.byCode[stored.Code] = stored.ID
	return stored.ID, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*feature.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, ok := m.flags[id]
	if !ok || flag.IsDeleted() {
		return nil, feature.ErrFlagNotFound
	}
	return flag.Clone(), nil
}

func (m *MemoryStore) FindByCode(_ context.Context, code string) (*feature.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, ok := m.live(code)
	if !ok {
		return nil, feature.ErrFlagNotFound
	}
	return flag.Clone(), nil
}

func (m *MemoryStore) UpdateEnabled(_ context.Context, code string, enabled bool) (*feature.Flag, error) {
	return m.mutate(code, func(f *feature.Flag) {
		f.Enabled = enabled
	})
}

func (m *MemoryStore) Update(_ context.Context, code string, flag *feature.Flag) (*feature.Flag, error) {
	if flag == nil {
		return nil, errors.Join(feature.ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	return m.mutate(code, func(f *feature.Flag) {
		f.Name = flag.Name
		f.Description = flag.Description
		f.Enabled = flag.Enabled
		f.Rule = feature.CanonicalRule(flag.Rule)
	})
}

func (m *MemoryStore) UpdateFields(_ context.Context, code string, patch feature.Patch) (*feature.Flag, error) {
	return m.mutate(code, func(f *feature.Flag) {
		if patch.Enabled != nil {
			f.Enabled = *patch.Enabled
		}
		if patch.Description != nil {
			f.Description = *patch.Description
		}
		if patch.Rule != nil {
			f.Rule = feature.CanonicalRule(patch.Rule)
		}
	})
}

func (m *MemoryStore) SoftDelete(_ context.Context, code string) (*feature.Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flag, ok := m.live(code)
	if !ok {
		return nil, feature.ErrFlagNotFound
	}
	now := m.now().UTC()
	flag.DeletedAt = &now
	delete(m.byCode, code)
	return flag.Clone(), nil
}

func (m *MemoryStore) Query(_ context.Context, q feature.ListQuery) (feature.Page[*feature.Flag], error) {
	q = q.Normalize()
	keyword := strings.ToLower(q.Keyword)

	m.mu.RLock()
	matches := make([]*feature.Flag, 0, len(m.byCode))
	for _, id := range m.byCode {
		flag := m.flags[id]
		if q.Enabled != nil && flag.Enabled != *q.Enabled {
			continue
		}
		if q.Kind != nil && flag.Kind() != *q.Kind {
			continue
		}
		if keyword != "" && !containsKeyword(flag, keyword) {
			continue
		}
		matches = append(matches, flag.Clone())
	}
	m.mu.RUnlock()

	slices.SortFunc(matches, func(a, b *feature.Flag) int {
		return cmp.Compare(a.Code, b.Code)
	})

	page := feature.Page[*feature.Flag]{Count: int64(len(matches)), Items: []*feature.Flag{}}
	if q.Offset < len(matches) {
		end := min(q.Offset+q.Limit, len(matches))
		page.Items = matches[q.Offset:end]
	}
	return page, nil
}

// live must be called with the lock held.
func (m *MemoryStore) live(code string) (*feature.Flag, bool) {
	id, ok := m.byCode[code]
	if !ok {
		return nil, false
	}
	return m.flags[id], true
}

func (m *MemoryStore) mutate(code string, apply func(*feature.Flag)) (*feature.Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.live(code)
	if !ok {
		return nil, feature.ErrFlagNotFound
	}

	next := current.Clone()
	apply(next)
	now := m.now().UTC()
	next.UpdatedAt = &now
	m.flags[next.ID] = next
	return next.Clone(), nil
}

func containsKeyword(f *feature.Flag, keyword string) bool {
	return strings.Contains(strings.ToLower(f.Name), keyword) ||
		strings.Contains(strings.ToLower(f.Description), keyword) ||
		strings.Contains(strings.ToLower(f.Code), keyword)
}
