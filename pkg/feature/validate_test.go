package feature_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

func TestFlag_Validate(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		flag    *feature.Flag
		wantErr error
	}{
		{name: "nil flag", flag: nil, wantErr: feature.ErrInvalidFlag},
		{name: "valid toggle", flag: &feature.Flag{Name: "Toggle", Code: "TOGGLE"}},
		{name: "missing name", flag: &feature.Flag{Code: "TOGGLE"}, wantErr: feature.ErrInvalidFlag},
		{name: "missing code", flag: &feature.Flag{Name: "Toggle"}, wantErr: feature.ErrInvalidFlag},
		{name: "code with spaces", flag: &feature.Flag{Name: "Toggle", Code: "new ui"}, wantErr: feature.ErrInvalidFlag},
		{
			name: "percentage above range",
			flag: &feature.Flag{Name: "Beta", Code: "BETA", Rule: feature.UserTargeting{Percentage: 101}},
			wantErr: feature.ErrInvalidRule,
		},
		{
			name: "negative percentage",
			flag: &feature.Flag{Name: "Beta", Code: "BETA", Rule: feature.GroupTargeting{Percentage: -1}},
			wantErr: feature.ErrInvalidRule,
		},
		{
			name: "empty target id",
			flag: &feature.Flag{Name: "Beta", Code: "BETA", Rule: feature.UserTargeting{UserIDs: []string{""}}},
			wantErr: feature.ErrInvalidRule,
		},
		{
			name: "time window without start",
			flag: &feature.Flag{Name: "Window", Code: "WINDOW", Rule: feature.TimeBasedActivation{End: now}},
			wantErr: feature.ErrInvalidRule,
		},
		{
			name: "inverted time window is storable",
			flag: &feature.Flag{Name: "Window", Code: "WINDOW", Rule: feature.TimeBasedActivation{Start: now, End: now.Add(-time.Hour)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.flag.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListQuery_Normalize(t *testing.T) {
	t.Parallel()
	q := feature.ListQuery{Limit: 0, Offset: -5}.Normalize()
	assert.Equal(t, feature.DefaultLimit, q.Limit)
	assert.Equal(t, feature.DefaultOffset, q.Offset)

	q = feature.ListQuery{Limit: 99, Offset: 3}.Normalize()
	assert.Equal(t, 99, q.Limit)
	assert.Equal(t, 3, q.Offset)
}

func TestParseRuleKind(t *testing.T) {
	t.Parallel()
	k, err := feature.ParseRuleKind("group_targeting")
	require.NoError(t, err)
	assert.Equal(t, feature.KindGroupTargeting, k)

	_, err = feature.ParseRuleKind("geo")
	require.ErrorIs(t, err, feature.ErrUnknownRuleKind)

	assert.Equal(t, feature.KindToggle, feature.KindOf(nil))
	assert.Equal(t, feature.KindToggle, feature.KindOf((*feature.UserTargeting)(nil)))
}
