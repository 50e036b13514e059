package gormstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// flagRecord is the feature_flags row. The rule is kept as JSON text next to
// its kind so that ListByRuleKind filters without decoding.
type flagRecord struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)"`
	Name        string         `gorm:"size:255;not null"`
	Code        string         `gorm:"size:128;not null;uniqueIndex:idx_feature_flags_live_code,where:deleted_at IS NULL"`
	Description string         `gorm:"type:text;not null;default:''"`
	Enabled     bool           `gorm:"not null;default:false"`
	RuleKind    string         `gorm:"size:32;not null;default:toggle;index"`
	Rule        string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   *time.Time     `gorm:"autoUpdateTime:false"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (flagRecord) TableName() string { return "feature_flags" }

func toRecord(f *feature.Flag) (*flagRecord, error) {
	rule, err := feature.MarshalRule(f.Rule)
	if err != nil {
		return nil, err
	}
	return &flagRecord{
		ID:          f.ID.String(),
		Name:        f.Name,
		Code:        f.Code,
		Description: f.Description,
		Enabled:     f.Enabled,
		RuleKind:    string(f.Kind()),
		Rule:        string(rule),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}, nil
}

func (r *flagRecord) toFlag() (*feature.Flag, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id of feature flag %q: %w", r.Code, err)
	}
	rule, err := feature.UnmarshalRule([]byte(r.Rule))
	if err != nil {
		return nil, fmt.Errorf("decode rule of feature flag %q: %w", r.Code, err)
	}
	f := &feature.Flag{
		ID:          id,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		Enabled:     r.Enabled,
		Rule:        rule,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.UpdatedAt != nil {
		t := r.UpdatedAt.UTC()
		f.UpdatedAt = &t
	}
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time.UTC()
		f.DeletedAt = &t
	}
	return f, nil
}
