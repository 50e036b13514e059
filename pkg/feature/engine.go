package feature

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// BucketCount is the size of the rollout bucket space. One bucket is 0.01%.
const BucketCount = 10000

// Metadata projection keys understood by Engine.MetadataValue.
const (
	MetaType             = "type"
	MetaPercentage       = "percentage"
	MetaTargetedUserIDs  = "targetedUserIds"
	MetaTargetedGroupIDs = "targetedGroupIds"
	MetaStartTime        = "startTime"
	MetaEndTime          = "endTime"
)

// Engine evaluates targeting rules. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	now func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used for time based rules.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a rule evaluation engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides whether a rule owned by the flag with the given code is
// satisfied by ec. A nil rule is always satisfied. Missing or unusable
// context values make the rule evaluate to false; Evaluate never fails.
func (e *Engine) Evaluate(code string, rule Rule, ec EvalContext) bool {
	switch r := normalizeRule(rule).(type) {
	case nil:
		return true
	case UserTargeting:
		return matchTargets(code, ec, ContextUserID, r.UserIDs, r.Percentage)
	case GroupTargeting:
		return matchTargets(code, ec, ContextGroupID, r.GroupIDs, r.Percentage)
	case TimeBasedActivation:
		return activeAt(r, e.now())
	default:
		return false
	}
}

// MetadataValue projects a single attribute of a rule as a string.
// It reports false when the rule is nil or has no such attribute.
func (e *Engine) MetadataValue(rule Rule, key string) (string, bool) {
	r := normalizeRule(rule)
	if r == nil {
		return "", false
	}
	if key == MetaType {
		return string(r.Kind()), true
	}
	switch r := r.(type) {
	case UserTargeting:
		switch key {
		case MetaPercentage:
			return formatPercentage(r.Percentage), true
		case MetaTargetedUserIDs:
			return strings.Join(r.UserIDs, ","), true
		}
	case GroupTargeting:
		switch key {
		case MetaPercentage:
			return formatPercentage(r.Percentage), true
		case MetaTargetedGroupIDs:
			return strings.Join(r.GroupIDs, ","), true
		}
	case TimeBasedActivation:
		switch key {
		case MetaStartTime:
			return r.Start.UTC().Format(time.RFC3339), true
		case MetaEndTime:
			return r.End.UTC().Format(time.RFC3339), true
		}
	}
	return "", false
}

// Bucket maps an identifier to a stable position in [0, BucketCount).
// The flag code is part of the hash input so that rollouts of different
// flags are not correlated.
func Bucket(code, id string) int {
	return int(xxhash.Sum64String(code+":"+id) % BucketCount)
}

// InRollout reports whether id falls within the first percentage percent of
// the bucket space for the given flag code.
func InRollout(code, id string, percentage float64) bool {
	if id == "" || !(percentage > 0) {
		return false
	}
	return float64(Bucket(code, id)) < percentage*100
}

func matchTargets(code string, ec EvalContext, key string, targets []string, percentage float64) bool {
	id, ok := identifier(ec, key)
	if !ok {
		return false
	}
	if slices.Contains(targets, id) {
		return true
	}
	return InRollout(code, id, percentage)
}

func activeAt(r TimeBasedActivation, now time.Time) bool {
	if r.Start.After(r.End) {
		return false
	}
	return !now.Before(r.Start) && !now.After(r.End)
}

// identifier reads a scalar context value as a string.
func identifier(ec EvalContext, key string) (string, bool) {
	v, ok := ec[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case fmt.Stringer:
		s = val.String()
	case int:
		s = strconv.Itoa(val)
	case int32:
		s = strconv.FormatInt(int64(val), 10)
	case int64:
		s = strconv.FormatInt(val, 10)
	case uint:
		s = strconv.FormatUint(uint64(val), 10)
	case uint32:
		s = strconv.FormatUint(uint64(val), 10)
	case uint64:
		s = strconv.FormatUint(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		s = strconv.FormatBool(val)
	default:
		return "", false
	}
	if s == "" {
		return "", false
	}
	return s, true
}

func formatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// normalizeRule dereferences pointer variants so that callers may pass
// either &UserTargeting{} or UserTargeting{}.
func normalizeRule(r Rule) Rule {
	switch v := r.(type) {
	case *UserTargeting:
		if v == nil {
			return nil
		}
		return *v
	case *GroupTargeting:
		if v == nil {
			return nil
		}
		return *v
	case *TimeBasedActivation:
		if v == nil {
			return nil
		}
		return *v
	}
	return r
}
