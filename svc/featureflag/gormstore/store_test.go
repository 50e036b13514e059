package gormstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/svc/featureflag"
	"github.com/dmitrymomot/flagkit/svc/featureflag/gormstore"
	"github.com/dmitrymomot/flagkit/svc/featureflag/storetest"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gormstore.Open(":memory:", &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, gormstore.Migrate(context.Background(), db))
	return db
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) featureflag.Store {
		return gormstore.New(openDB(t))
	})
}

func TestStore_Timestamps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
	store := gormstore.New(openDB(t), gormstore.WithClock(func() time.Time { return now }))

	id, err := store.Insert(ctx, &feature.Flag{Name: "A", Code: "A"})
	require.NoError(t, err)

	got, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.Nil(t, got.UpdatedAt)

	now = now.Add(time.Hour)
	got, err = store.UpdateEnabled(ctx, "A", true)
	require.NoError(t, err)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, now.Equal(*got.UpdatedAt))

	deleted, err := store.SoftDelete(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)
	assert.True(t, now.Equal(*deleted.DeletedAt))
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	require.NoError(t, gormstore.Migrate(context.Background(), db))
	assert.True(t, db.Migrator().HasIndex("feature_flags", "idx_feature_flags_live_code"))
}
