package feature

import (
	"slices"
	"time"
)

// RuleKind is the discriminant of a targeting rule.
type RuleKind string

const (
	// KindToggle marks a flag without a rule; Enabled alone decides.
	KindToggle RuleKind = "toggle"
	// KindUserTargeting selects users by ID list or percentage rollout.
	KindUserTargeting RuleKind = "user_targeting"
	// KindGroupTargeting selects groups by ID list or percentage rollout.
	KindGroupTargeting RuleKind = "group_targeting"
	// KindTimeBased activates a flag inside a time window.
	KindTimeBased RuleKind = "time_based_activation"
)

// Valid reports whether k is one of the known rule kinds.
func (k RuleKind) Valid() bool {
	switch k {
	case KindToggle, KindUserTargeting, KindGroupTargeting, KindTimeBased:
		return true
	}
	return false
}

// ParseRuleKind converts a string into a RuleKind.
func ParseRuleKind(s string) (RuleKind, error) {
	k := RuleKind(s)
	if !k.Valid() {
		return "", ErrUnknownRuleKind
	}
	return k, nil
}

// Rule is a targeting rule. The set of implementations is closed:
// UserTargeting, GroupTargeting and TimeBasedActivation.
type Rule interface {
	Kind() RuleKind
	isRule()
}

// UserTargeting enables a flag for listed users, or for a deterministic
// percentage of all users.
type UserTargeting struct {
	UserIDs    []string `json:"targeted_user_ids" validate:"dive,required"`
	Percentage float64  `json:"percentage" validate:"gte=0,lte=100"`
}

func (UserTargeting) Kind() RuleKind { return KindUserTargeting }
func (UserTargeting) isRule()        {}

// GroupTargeting enables a flag for listed groups, or for a deterministic
// percentage of all groups.
type GroupTargeting struct {
	GroupIDs   []string `json:"targeted_group_ids" validate:"dive,required"`
	Percentage float64  `json:"percentage" validate:"gte=0,lte=100"`
}

func (GroupTargeting) Kind() RuleKind { return KindGroupTargeting }
func (GroupTargeting) isRule()        {}

// TimeBasedActivation enables a flag while Start <= now <= End.
// A window with Start after End is never active.
type TimeBasedActivation struct {
	Start time.Time `json:"start_time" validate:"required"`
	End   time.Time `json:"end_time" validate:"required"`
}

func (TimeBasedActivation) Kind() RuleKind { return KindTimeBased }
func (TimeBasedActivation) isRule()        {}

// KindOf returns the discriminant of r, KindToggle for a nil rule.
func KindOf(r Rule) RuleKind {
	r = normalizeRule(r)
	if r == nil {
		return KindToggle
	}
	return r.Kind()
}

// CloneRule returns a deep copy of r.
func CloneRule(r Rule) Rule {
	switch v := r.(type) {
	case UserTargeting:
		v.UserIDs = slices.Clone(v.UserIDs)
		return v
	case *UserTargeting:
		if v == nil {
			return nil
		}
		return UserTargeting{UserIDs: slices.Clone(v.UserIDs), Percentage: v.Percentage}
	case GroupTargeting:
		v.GroupIDs = slices.Clone(v.GroupIDs)
		return v
	case *GroupTargeting:
		if v == nil {
			return nil
		}
		return GroupTargeting{GroupIDs: slices.Clone(v.GroupIDs), Percentage: v.Percentage}
	case TimeBasedActivation:
		return v
	case *TimeBasedActivation:
		if v == nil {
			return nil
		}
		return *v
	default:
		return nil
	}
}

// CanonicalRule returns a deep copy of r in the form every store and cache
// hands back: value variants, nil instead of empty ID lists, UTC window bounds.
func CanonicalRule(r Rule) Rule {
	switch v := CloneRule(r).(type) {
	case UserTargeting:
		if len(v.UserIDs) == 0 {
			v.UserIDs = nil
		}
		return v
	case GroupTargeting:
		if len(v.GroupIDs) == 0 {
			v.GroupIDs = nil
		}
		return v
	case TimeBasedActivation:
		v.Start, v.End = v.Start.UTC(), v.End.UTC()
		return v
	}
	return r
}
