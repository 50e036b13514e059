// Package gormstore implements featureflag.Store with GORM.
//
// It is dialect-agnostic and ships tested against SQLite through the pure-Go
// github.com/glebarez/sqlite driver, which makes it a good fit for single-node
// deployments and local development. Rows are soft-deleted with gorm.DeletedAt.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// Store is a featureflag.Store on a *gorm.DB.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store on db. Call Migrate once before use.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a SQLite database at dsn. ":memory:" gives a private in-memory
// database; the pool is then pinned to a single connection so that every
// query sees it.
func Open(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	if dsn == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the feature_flags table and its indexes.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&flagRecord{}); err != nil {
		return fmt.Errorf("migrate feature_flags: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, flag *feature.Flag) (uuid.UUID, error) {
	f := flag.Clone()
	f.ID = uuid.New()
	f.CreatedAt = s.now().UTC()
	f.UpdatedAt = nil

	rec, err := toRecord(f)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicate(err) {
			return uuid.Nil, feature.ErrFlagExists
		}
		return uuid.Nil, fmt.Errorf("insert feature flag: %w", err)
	}
	return f.ID, nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*feature.Flag, error) {
	return s.first(s.db.WithContext(ctx), "id = ?", id.String())
}

func (s *Store) FindByCode(ctx context.Context, code string) (*feature.Flag, error) {
	return s.first(s.db.WithContext(ctx), "code = ?", code)
}

func (s *Store) UpdateEnabled(ctx context.Context, code string, enabled bool) (*feature.Flag, error) {
	return s.update(ctx, code, map[string]any{"enabled": enabled})
}

func (s *Store) Update(ctx context.Context, code string, flag *feature.Flag) (*feature.Flag, error) {
	if flag == nil {
		return nil, errors.Join(feature.ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	rule, err := feature.MarshalRule(flag.Rule)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, code, map[string]any{
		"name":        flag.Name,
		"description": flag.Description,
		"enabled":     flag.Enabled,
		"rule_kind":   string(flag.Kind()),
		"rule":        string(rule),
	})
}

func (s *Store) UpdateFields(ctx context.Context, code string, patch feature.Patch) (*feature.Flag, error) {
	fields := map[string]any{}
	if patch.Enabled != nil {
		fields["enabled"] = *patch.Enabled
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Rule != nil {
		rule, err := feature.MarshalRule(patch.Rule)
		if err != nil {
			return nil, err
		}
		fields["rule_kind"] = string(feature.KindOf(patch.Rule))
		fields["rule"] = string(rule)
	}
	return s.update(ctx, code, fields)
}

func (s *Store) SoftDelete(ctx context.Context, code string) (*feature.Flag, error) {
	var deleted *feature.Flag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec flagRecord
		if err := tx.Where("code = ?", code).Take(&rec).Error; err != nil {
			return notFound(err)
		}
		now := s.now().UTC()
		if err := tx.Model(&rec).Update("deleted_at", now).Error; err != nil {
			return fmt.Errorf("delete feature flag: %w", err)
		}
		rec.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}

		var err error
		deleted, err = rec.toFlag()
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *Store) Query(ctx context.Context, q feature.ListQuery) (feature.Page[*feature.Flag], error) {
	q = q.Normalize()
	page := feature.Page[*feature.Flag]{Items: []*feature.Flag{}}
	db := s.db.WithContext(ctx)

	if err := db.Model(&flagRecord{}).Scopes(filter(q)).Count(&page.Count).Error; err != nil {
		return page, fmt.Errorf("count feature flags: %w", err)
	}
	if page.Count == 0 {
		return page, nil
	}

	var recs []flagRecord
	err := db.Scopes(filter(q)).
		Order("code ASC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&recs).Error
	if err != nil {
		return page, fmt.Errorf("query feature flags: %w", err)
	}
	for i := range recs {
		f, err := recs[i].toFlag()
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, f)
	}
	return page, nil
}

func filter(q feature.ListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.Keyword != "" {
			like := "%" + escapeLike(strings.ToLower(q.Keyword)) + "%"
			db = db.Where(
				`(lower(name) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\' OR lower(code) LIKE ? ESCAPE '\')`,
				like, like, like,
			)
		}
		if q.Enabled != nil {
			db = db.Where("enabled = ?", *q.Enabled)
		}
		if q.Kind != nil {
			db = db.Where("rule_kind = ?", string(*q.Kind))
		}
		return db
	}
}

// update applies fields to the live flag with code and returns the result.
func (s *Store) update(ctx context.Context, code string, fields map[string]any) (*feature.Flag, error) {
	fields["updated_at"] = s.now().UTC()

	var updated *feature.Flag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&flagRecord{}).Where("code = ?", code).Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("update feature flag: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return feature.ErrFlagNotFound
		}
		var err error
		updated, err = s.first(tx, "code = ?", code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) first(db *gorm.DB, query string, args ...any) (*feature.Flag, error) {
	var rec flagRecord
	if err := db.Where(query, args...).Take(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return rec.toFlag()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return feature.ErrFlagNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
