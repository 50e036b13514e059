// Package storetest holds the behavioural contract every featureflag.Store
// implementation must satisfy. Backend packages call Run from their tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/svc/featureflag"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) featureflag.Store

// Run exercises store semantics against stores built by newStore.
// Subtests run sequentially so that factories may share one database.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		store := newStore(t)
		start := time.Now().UTC().Add(-time.Minute)

		id, err := store.Insert(ctx, &feature.Flag{
			Name: "Beta", Code: "BETA", Description: "beta users", Enabled: true,
			Rule: feature.UserTargeting{UserIDs: []string{"u1", "u2"}, Percentage: 12.5},
		})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, id)

		byID, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		byCode, err := store.FindByCode(ctx, "BETA")
		require.NoError(t, err)

		for _, got := range []*feature.Flag{byID, byCode} {
			assert.Equal(t, id, got.ID)
			assert.Equal(t, "Beta", got.Name)
			assert.Equal(t, "beta users", got.Description)
			assert.True(t, got.Enabled)
			assert.Equal(t, feature.UserTargeting{UserIDs: []string{"u1", "u2"}, Percentage: 12.5}, got.Rule)
			assert.True(t, got.CreatedAt.After(start))
			assert.Nil(t, got.UpdatedAt)
			assert.Nil(t, got.DeletedAt)
		}
	})

	t.Run("toggle without rule", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Insert(ctx, &feature.Flag{Name: "Toggle", Code: "TOGGLE"})
		require.NoError(t, err)

		got, err := store.FindByCode(ctx, "TOGGLE")
		require.NoError(t, err)
		assert.Nil(t, got.Rule)
		assert.False(t, got.Enabled)
	})

	t.Run("time window survives round trip", func(t *testing.T) {
		store := newStore(t)
		start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
		rule := feature.TimeBasedActivation{Start: start, End: start.Add(48 * time.Hour)}
		_, err := store.Insert(ctx, &feature.Flag{Name: "Window", Code: "WINDOW", Rule: rule})
		require.NoError(t, err)

		got, err := store.FindByCode(ctx, "WINDOW")
		require.NoError(t, err)
		window, ok := got.Rule.(feature.TimeBasedActivation)
		require.True(t, ok)
		assert.True(t, rule.Start.Equal(window.Start))
		assert.True(t, rule.End.Equal(window.End))
	})

	t.Run("duplicate live code", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Insert(ctx, &feature.Flag{Name: "A", Code: "DUP"})
		require.NoError(t, err)
		_, err = store.Insert(ctx, &feature.Flag{Name: "B", Code: "DUP"})
		require.ErrorIs(t, err, feature.ErrFlagExists)
	})

	t.Run("missing flag", func(t *testing.T) {
		store := newStore(t)
		_, err := store.FindByID(ctx, uuid.New())
		require.ErrorIs(t, err, feature.ErrFlagNotFound)
		_, err = store.FindByCode(ctx, "MISSING")
		require.ErrorIs(t, err, feature.ErrFlagNotFound)
		_, err = store.UpdateEnabled(ctx, "MISSING", true)
		require.ErrorIs(t, err, feature.ErrFlagNotFound)
		_, err = store.Update(ctx, "MISSING", &feature.Flag{Name: "X", Code: "MISSING"})
		require.ErrorIs(t, err, feature.ErrFlagNotFound)
		_, err = store.UpdateFields(ctx, "MISSING", feature.Patch{})
		require.ErrorIs(t, err, feature.ErrFlagNotFound)
		_, err = store.SoftDelete(ctx, "MISSING")
		require.ErrorIs(t, err, feature.ErrFlagNotFound)
	})

	t.Run("update enabled", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Insert(ctx, &feature.Flag{Name: "A", Code: "A"})
		require.NoError(t, err)

		got, err := store.UpdateEnabled(ctx, "A", true)
		require.NoError(t, err)
		assert.True(t, got.Enabled)
		assert.NotNil(t, got.UpdatedAt)

		reread, err := store.FindByCode(ctx, "A")
		require.NoError(t, err)
		assert.True(t, reread.Enabled)
	})

	t.Run("update replaces attributes and keeps identity", func(t *testing.T) {
		store := newStore(t)
		id, err := store.Insert(ctx, &feature.Flag{
			Name: "A", Code: "A", Description: "old",
			Rule: feature.UserTargeting{UserIDs: []string{"u1"}},
		})
		require.NoError(t, err)

		got, err := store.Update(ctx, "A", &feature.Flag{
			Name: "A2", Code: "A", Enabled: true,
			Rule: feature.GroupTargeting{GroupIDs: []string{"g1"}, Percentage: 50},
		})
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "A2", got.Name)
		assert.Empty(t, got.Description)
		assert.True(t, got.Enabled)
		assert.Equal(t, feature.GroupTargeting{GroupIDs: []string{"g1"}, Percentage: 50}, got.Rule)
		assert.NotNil(t, got.UpdatedAt)

		cleared, err := store.Update(ctx, "A", &feature.Flag{Name: "A3", Code: "A"})
		require.NoError(t, err)
		assert.Nil(t, cleared.Rule)
	})

	t.Run("update fields applies only set fields", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Insert(ctx, &feature.Flag{
			Name: "A", Code: "A", Description: "old",
			Rule: feature.UserTargeting{UserIDs: []string{"u1"}},
		})
		require.NoError(t, err)

		desc := "new"
		got, err := store.UpdateFields(ctx, "A", feature.Patch{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "new", got.Description)
		assert.False(t, got.Enabled)
		assert.Equal(t, feature.UserTargeting{UserIDs: []string{"u1"}}, got.Rule)

		enabled := true
		got, err = store.UpdateFields(ctx, "A", feature.Patch{
			Enabled: &enabled,
			Rule:    feature.GroupTargeting{GroupIDs: []string{"g1"}},
		})
		require.NoError(t, err)
		assert.True(t, got.Enabled)
		assert.Equal(t, "new", got.Description)
		assert.Equal(t, feature.GroupTargeting{GroupIDs: []string{"g1"}}, got.Rule)
		assert.Equal(t, "A", got.Name)
	})

	t.Run("soft delete hides flag and frees code", func(t *testing.T) {
		store := newStore(t)
		id, err := store.Insert(ctx, &feature.Flag{Name: "A", Code: "A", Enabled: true})
		require.NoError(t, err)

		deleted, err := store.SoftDelete(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, id, deleted.ID)
		require.NotNil(t, deleted.DeletedAt)

		_, err = store.FindByID(ctx, id)
		require.ErrorIs(t, err, feature.ErrFlagNotFound)
		_, err = store.FindByCode(ctx, "A")
		require.ErrorIs(t, err, feature.ErrFlagNotFound)
		_, err = store.SoftDelete(ctx, "A")
		require.ErrorIs(t, err, feature.ErrFlagNotFound)

		page, err := store.Query(ctx, feature.ListQuery{})
		require.NoError(t, err)
		assert.Zero(t, page.Count)
		assert.Empty(t, page.Items)

		newID, err := store.Insert(ctx, &feature.Flag{Name: "A again", Code: "A"})
		require.NoError(t, err)
		assert.NotEqual(t, id, newID)
	})

	t.Run("query pages by code", func(t *testing.T) {
		store := newStore(t)
		for _, code := range []string{"C", "A", "E", "B", "D", "a"} {
			_, err := store.Insert(ctx, &feature.Flag{Name: "Flag " + code, Code: code})
			require.NoError(t, err)
		}

		page, err := store.Query(ctx, feature.ListQuery{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(6), page.Count)
		assert.Equal(t, []string{"B", "C"}, codes(page.Items))

		page, err = store.Query(ctx, feature.ListQuery{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C", "D", "E", "a"}, codes(page.Items))

		page, err = store.Query(ctx, feature.ListQuery{Limit: 10, Offset: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(6), page.Count)
		assert.Empty(t, page.Items)
	})

	t.Run("query filters", func(t *testing.T) {
		store := newStore(t)
		seed := []*feature.Flag{
			{Name: "New checkout", Code: "CHECKOUT_V2", Enabled: true},
			{Name: "Dark mode", Code: "DARK", Description: "Night theme for the CHECKOUT page"},
			{Name: "Beta", Code: "BETA", Enabled: true, Rule: feature.UserTargeting{Percentage: 10}},
			{Name: "Admins", Code: "ADMINS", Rule: feature.GroupTargeting{GroupIDs: []string{"admins"}}},
			{Name: "Literal 100%", Code: "PCT"},
		}
		for _, f := range seed {
			_, err := store.Insert(ctx, f)
			require.NoError(t, err)
		}

		page, err := store.Query(ctx, feature.ListQuery{Keyword: "checkout"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Count)
		assert.Equal(t, []string{"CHECKOUT_V2", "DARK"}, codes(page.Items))

		page, err = store.Query(ctx, feature.ListQuery{Keyword: "%"})
		require.NoError(t, err)
		assert.Equal(t, []string{"PCT"}, codes(page.Items))

		enabled := true
		page, err = store.Query(ctx, feature.ListQuery{Enabled: &enabled})
		require.NoError(t, err)
		assert.Equal(t, []string{"BETA", "CHECKOUT_V2"}, codes(page.Items))

		kind := feature.KindGroupTargeting
		page, err = store.Query(ctx, feature.ListQuery{Kind: &kind})
		require.NoError(t, err)
		assert.Equal(t, []string{"ADMINS"}, codes(page.Items))

		toggle := feature.KindToggle
		page, err = store.Query(ctx, feature.ListQuery{Kind: &toggle, Enabled: &enabled})
		require.NoError(t, err)
		assert.Equal(t, []string{"CHECKOUT_V2"}, codes(page.Items))
	})

	t.Run("rule kind follows updates", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Insert(ctx, &feature.Flag{Name: "A", Code: "A"})
		require.NoError(t, err)
		_, err = store.UpdateFields(ctx, "A", feature.Patch{Rule: feature.UserTargeting{UserIDs: []string{"u1"}}})
		require.NoError(t, err)

		kind := feature.KindUserTargeting
		page, err := store.Query(ctx, feature.ListQuery{Kind: &kind})
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, codes(page.Items))
	})

	t.Run("returned flags are detached", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Insert(ctx, &feature.Flag{Name: "A", Code: "A", Rule: feature.UserTargeting{UserIDs: []string{"u1"}}})
		require.NoError(t, err)

		got, err := store.FindByCode(ctx, "A")
		require.NoError(t, err)
		got.Name = "mutated"
		got.Rule.(feature.UserTargeting).UserIDs[0] = "mutated"

		again, err := store.FindByCode(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "A", again.Name)
		assert.Equal(t, feature.UserTargeting{UserIDs: []string{"u1"}}, again.Rule)
	})
}

func codes(flags []*feature.Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, f.Code)
	}
	return out
}
