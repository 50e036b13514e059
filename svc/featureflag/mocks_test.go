package featureflag_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/svc/featureflag"
)

// MockStore for testing Service
type MockStore struct {
	mock.Mock
}

func flagArg(args mock.Arguments) *feature.Flag {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*feature.Flag)
}

func (m *MockStore) Insert(ctx context.Context, flag *feature.Flag) (uuid.UUID, error) {
	args := m.Called(ctx, flag)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockStore) FindByID(ctx context.Context, id uuid.UUID) (*feature.Flag, error) {
	args := m.Called(ctx, id)
	return flagArg(args), args.Error(1)
}

func (m *MockStore) FindByCode(ctx context.Context, code string) (*feature.Flag, error) {
	args := m.Called(ctx, code)
	return flagArg(args), args.Error(1)
}

func (m *MockStore) UpdateEnabled(ctx context.Context, code string, enabled bool) (*feature.Flag, error) {
	args := m.Called(ctx, code, enabled)
	return flagArg(args), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, code string, flag *feature.Flag) (*feature.Flag, error) {
	args := m.Called(ctx, code, flag)
	return flagArg(args), args.Error(1)
}

func (m *MockStore) UpdateFields(ctx context.Context, code string, patch feature.Patch) (*feature.Flag, error) {
	args := m.Called(ctx, code, patch)
	return flagArg(args), args.Error(1)
}

func (m *MockStore) SoftDelete(ctx context.Context, code string) (*feature.Flag, error) {
	args := m.Called(ctx, code)
	return flagArg(args), args.Error(1)
}

func (m *MockStore) Query(ctx context.Context, q feature.ListQuery) (feature.Page[*feature.Flag], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(feature.Page[*feature.Flag]), args.Error(1)
}

// MockCache for testing Service
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (*feature.Flag, bool, error) {
	args := m.Called(ctx, key)
	return flagArg(args), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, flag *feature.Flag, ttl time.Duration) error {
	args := m.Called(ctx, key, flag, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockNotifier for testing Service
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, flag *feature.Flag, kind featureflag.ChangeKind) error {
	args := m.Called(ctx, flag, kind)
	return args.Error(0)
}

// countingStore wraps a Store and counts code lookups.
type countingStore struct {
	featureflag.Store
	findByCode int
}

func (s *countingStore) FindByCode(ctx context.Context, code string) (*feature.Flag, error) {
	s.findByCode++
	return s.Store.FindByCode(ctx, code)
}
