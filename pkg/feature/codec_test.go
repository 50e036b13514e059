package feature_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

func TestFlagJSON(t *testing.T) {
	t.Parallel()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	flags := map[string]feature.Flag{
		"toggle": {
			ID: uuid.New(), Name: "Toggle", Code: "TOGGLE", Enabled: true, CreatedAt: created,
		},
		"user targeting": {
			ID: uuid.New(), Name: "Beta", Code: "BETA", Description: "beta users",
			Rule:      feature.UserTargeting{UserIDs: []string{"u1", "u2"}, Percentage: 12.5},
			CreatedAt: created, UpdatedAt: &updated,
		},
		"group targeting": {
			ID: uuid.New(), Name: "Groups", Code: "GROUPS",
			Rule:      feature.GroupTargeting{GroupIDs: []string{"g1"}, Percentage: 75},
			CreatedAt: created,
		},
		"time based": {
			ID: uuid.New(), Name: "Window", Code: "WINDOW",
			Rule:      feature.TimeBasedActivation{Start: created, End: updated},
			CreatedAt: created,
		},
	}

	for name, flag := range flags {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(flag)
			require.NoError(t, err)

			var decoded feature.Flag
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, flag, decoded)
		})
	}
}

func TestFlagJSON_Shape(t *testing.T) {
	t.Parallel()
	flag := feature.Flag{
		Name: "Beta", Code: "BETA",
		Rule: feature.UserTargeting{UserIDs: []string{"u1"}, Percentage: 0},
	}
	data, err := json.Marshal(flag)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "user_targeting", raw["type"])
	rule, ok := raw["rule"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user_targeting", rule["type"])
	assert.Equal(t, []any{"u1"}, rule["targeted_user_ids"])
	assert.InDelta(t, 0, rule["percentage"], 0)
	assert.NotContains(t, raw, "deleted_at")
}

func TestUnmarshalRule(t *testing.T) {
	t.Parallel()

	t.Run("empty and null", func(t *testing.T) {
		t.Parallel()
		r, err := feature.UnmarshalRule(nil)
		require.NoError(t, err)
		assert.Nil(t, r)

		r, err = feature.UnmarshalRule([]byte("null"))
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		_, err := feature.UnmarshalRule([]byte(`{"type":"geo"}`))
		require.ErrorIs(t, err, feature.ErrUnknownRuleKind)
	})

	t.Run("time window without bounds", func(t *testing.T) {
		t.Parallel()
		_, err := feature.UnmarshalRule([]byte(`{"type":"time_based_activation"}`))
		require.ErrorIs(t, err, feature.ErrInvalidRule)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		_, err := feature.UnmarshalRule([]byte(`{`))
		require.ErrorIs(t, err, feature.ErrInvalidRule)
	})
}

func TestFlagClone(t *testing.T) {
	t.Parallel()
	deleted := time.Now().UTC()
	original := &feature.Flag{
		Code:      "CLONE",
		Rule:      feature.UserTargeting{UserIDs: []string{"u1"}},
		DeletedAt: &deleted,
	}

	clone := original.Clone()
	clone.Rule.(feature.UserTargeting).UserIDs[0] = "changed"
	*clone.DeletedAt = deleted.Add(time.Hour)

	assert.Equal(t, "u1", original.Rule.(feature.UserTargeting).UserIDs[0])
	assert.Equal(t, deleted, *original.DeletedAt)
	assert.Nil(t, (*feature.Flag)(nil).Clone())
}

func TestFlagJSON_TypeMustMatchRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
		want    feature.RuleKind
	}{
		{name: "type without rule", body: `{"name":"Beta","code":"BETA","type":"user_targeting"}`, wantErr: feature.ErrInvalidRule},
		{name: "type of another variant", body: `{"code":"BETA","type":"group_targeting","rule":{"type":"user_targeting","percentage":5}}`, wantErr: feature.ErrInvalidRule},
		{name: "unknown type", body: `{"code":"BETA","type":"geo"}`, wantErr: feature.ErrUnknownRuleKind},
		{name: "explicit toggle", body: `{"code":"BETA","type":"toggle"}`, want: feature.KindToggle},
		{name: "type omitted", body: `{"code":"BETA","rule":{"type":"user_targeting","percentage":5}}`, want: feature.KindUserTargeting},
		{name: "matching type", body: `{"code":"BETA","type":"user_targeting","rule":{"type":"user_targeting","percentage":5}}`, want: feature.KindUserTargeting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var f feature.Flag
			err := json.Unmarshal([]byte(tt.body), &f)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Kind())
		})
	}
}

func TestCanonicalRule(t *testing.T) {
	t.Parallel()
	zone := time.FixedZone("UTC+1", 3600)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, zone)

	assert.Nil(t, feature.CanonicalRule(nil))
	assert.Equal(t,
		feature.UserTargeting{Percentage: 5},
		feature.CanonicalRule(&feature.UserTargeting{UserIDs: []string{}, Percentage: 5}))
	assert.Equal(t,
		feature.GroupTargeting{GroupIDs: []string{"g1"}},
		feature.CanonicalRule(feature.GroupTargeting{GroupIDs: []string{"g1"}}))

	window := feature.CanonicalRule(feature.TimeBasedActivation{Start: start, End: start.Add(time.Hour)}).(feature.TimeBasedActivation)
	assert.Equal(t, time.UTC, window.Start.Location())
	assert.Equal(t, time.UTC, window.End.Location())
	assert.True(t, window.Start.Equal(start))

	ids := []string{"u1"}
	rule := feature.CanonicalRule(feature.UserTargeting{UserIDs: ids}).(feature.UserTargeting)
	rule.UserIDs[0] = "changed"
	assert.Equal(t, "u1", ids[0])
}
