package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ruleEnvelope is the wire shape of a rule: a "type" discriminant plus the
// variant's own fields.
type ruleEnvelope struct {
	Type             RuleKind   `json:"type"`
	TargetedUserIDs  []string   `json:"targeted_user_ids,omitempty"`
	TargetedGroupIDs []string   `json:"targeted_group_ids,omitempty"`
	Percentage       *float64   `json:"percentage,omitempty"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
}

// MarshalRule encodes a rule with its discriminant. A nil rule encodes to nil.
func MarshalRule(r Rule) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	env, err := envelopeOf(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalRule decodes a rule produced by MarshalRule. Empty input and
// JSON null decode to a nil rule.
func UnmarshalRule(data []byte) (Rule, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env ruleEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Join(ErrInvalidRule, err)
	}
	return env.rule()
}

func envelopeOf(r Rule) (ruleEnvelope, error) {
	switch v := normalizeRule(r).(type) {
	case UserTargeting:
		p := v.Percentage
		return ruleEnvelope{Type: KindUserTargeting, TargetedUserIDs: v.UserIDs, Percentage: &p}, nil
	case GroupTargeting:
		p := v.Percentage
		return ruleEnvelope{Type: KindGroupTargeting, TargetedGroupIDs: v.GroupIDs, Percentage: &p}, nil
	case TimeBasedActivation:
		start, end := v.Start, v.End
		return ruleEnvelope{Type: KindTimeBased, StartTime: &start, EndTime: &end}, nil
	default:
		return ruleEnvelope{}, fmt.Errorf("%w: %T", ErrUnknownRuleKind, r)
	}
}

func (e ruleEnvelope) rule() (Rule, error) {
	var pct float64
	if e.Percentage != nil {
		pct = *e.Percentage
	}
	switch e.Type {
	case KindToggle, "":
		return nil, nil
	case KindUserTargeting:
		return UserTargeting{UserIDs: e.TargetedUserIDs, Percentage: pct}, nil
	case KindGroupTargeting:
		return GroupTargeting{GroupIDs: e.TargetedGroupIDs, Percentage: pct}, nil
	case KindTimeBased:
		if e.StartTime == nil || e.EndTime == nil {
			return nil, errors.Join(ErrInvalidRule, errors.New("time based activation requires start_time and end_time"))
		}
		return TimeBasedActivation{Start: e.StartTime.UTC(), End: e.EndTime.UTC()}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleKind, e.Type)
	}
}

// flagJSON is the wire shape of a Flag.
type flagJSON struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Description string          `json:"description,omitempty"`
	Enabled     bool            `json:"enabled"`
	Type        RuleKind        `json:"type"`
	Rule        json.RawMessage `json:"rule,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	rule, err := MarshalRule(f.Rule)
	if err != nil {
		return nil, err
	}
	return json.Marshal(flagJSON{
		ID:          f.ID,
		Name:        f.Name,
		Code:        f.Code,
		Description: f.Description,
		Enabled:     f.Enabled,
		Type:        KindOf(f.Rule),
		Rule:        rule,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		DeletedAt:   f.DeletedAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var raw flagJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rule, err := UnmarshalRule(raw.Rule)
	if err != nil {
		return err
	}
	if raw.Type != "" && raw.Type != KindOf(rule) {
		if !raw.Type.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownRuleKind, raw.Type)
		}
		return fmt.Errorf("%w: type %q does not match rule %q", ErrInvalidRule, raw.Type, KindOf(rule))
	}
	*f = Flag{
		ID:          raw.ID,
		Name:        raw.Name,
		Code:        raw.Code,
		Description: raw.Description,
		Enabled:     raw.Enabled,
		Rule:        rule,
		CreatedAt:   raw.CreatedAt,
		UpdatedAt:   raw.UpdatedAt,
		DeletedAt:   raw.DeletedAt,
	}
	return nil
}
