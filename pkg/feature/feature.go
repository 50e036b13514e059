package feature

import (
	"time"

	"github.com/google/uuid"
)

// Default pagination values used when a query leaves them unset.
const (
	DefaultLimit  = 10
	DefaultOffset = 0
)

// Flag represents a feature flag with its configuration.
//
// A Flag is a value: stores and caches hand out copies, and every mutation
// produces a new Flag instead of editing one that other callers may hold.
type Flag struct {
	ID          uuid.UUID  `validate:"-"`
	Name        string     `validate:"required,max=255"`
	Code        string     `validate:"required,max=128,flagcode"`
	Description string     `validate:"max=1024"`
	Enabled     bool       `validate:"-"`
	Rule        Rule       `validate:"-"` // nil means a plain toggle
	CreatedAt   time.Time  `validate:"-"`
	UpdatedAt   *time.Time `validate:"-"` // set only on mutation
	DeletedAt   *time.Time `validate:"-"` // non-nil marks a soft-deleted flag
}

// Kind returns the kind of the flag's targeting rule.
func (f *Flag) Kind() RuleKind {
	return KindOf(f.Rule)
}

// IsDeleted reports whether the flag carries a deletion marker.
func (f *Flag) IsDeleted() bool {
	return f.DeletedAt != nil
}

// Clone returns a deep copy of the flag.
func (f *Flag) Clone() *Flag {
	if f == nil {
		return nil
	}
	c := *f
	c.Rule = CloneRule(f.Rule)
	if f.UpdatedAt != nil {
		t := *f.UpdatedAt
		c.UpdatedAt = &t
	}
	if f.DeletedAt != nil {
		t := *f.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// Canonical returns a deep copy whose rule is in canonical form
// (see CanonicalRule) and whose timestamps are UTC.
func (f *Flag) Canonical() *Flag {
	c := f.Clone()
	if c == nil {
		return nil
	}
	c.Rule = CanonicalRule(c.Rule)
	c.CreatedAt = c.CreatedAt.UTC()
	if c.UpdatedAt != nil {
		t := c.UpdatedAt.UTC()
		c.UpdatedAt = &t
	}
	if c.DeletedAt != nil {
		t := c.DeletedAt.UTC()
		c.DeletedAt = &t
	}
	return c
}

// EvalContext carries per-call evaluation input such as the user or group identifier.
// Values are scalars: strings, numbers or booleans.
type EvalContext map[string]any

// Well-known evaluation context keys.
const (
	ContextUserID  = "userId"
	ContextGroupID = "groupId"
)

// Patch describes a partial flag update. Nil fields are left unchanged.
type Patch struct {
	Enabled     *bool   `validate:"-"`
	Description *string `validate:"omitempty,max=1024"`
	Rule        Rule    `validate:"-"` // nil leaves the rule unchanged
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Enabled == nil && p.Description == nil && p.Rule == nil
}

// ListQuery filters a flag listing. Results are always ordered by code ascending.
type ListQuery struct {
	Limit   int
	Offset  int
	Keyword string    // case-insensitive match on name, description or code; empty means no filter
	Enabled *bool     // optional AND filter
	Kind    *RuleKind // optional AND filter on the rule kind
}

// Normalize applies default pagination values.
func (q ListQuery) Normalize() ListQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Offset < 0 {
		q.Offset = DefaultOffset
	}
	return q
}

// Page is a paginated query result. Count is the total number of matching
// rows regardless of limit and offset.
type Page[T any] struct {
	Count int64 `json:"count"`
	Items []T   `json:"items"`
}
