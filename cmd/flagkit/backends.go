package main

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmitrymomot/flagkit/pkg/config"
	"github.com/dmitrymomot/flagkit/pkg/httpserver"
	"github.com/dmitrymomot/flagkit/pkg/mongo"
	"github.com/dmitrymomot/flagkit/pkg/pg"
	"github.com/dmitrymomot/flagkit/pkg/redis"
	"github.com/dmitrymomot/flagkit/svc/featureflag"
	"github.com/dmitrymomot/flagkit/svc/featureflag/gormstore"
	"github.com/dmitrymomot/flagkit/svc/featureflag/mongostore"
	"github.com/dmitrymomot/flagkit/svc/featureflag/pgstore"
	"github.com/dmitrymomot/flagkit/svc/featureflag/rediscache"
)

func openStore(ctx context.Context, cfg appConfig, log *slog.Logger, closers *closeStack) (featureflag.Store, httpserver.Check, error) {
	switch cfg.Store {
	case "memory":
		log.WarnContext(ctx, "using in-memory flag store, flags are lost on restart")
		return featureflag.NewMemoryStore(), nil, nil

	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		closers.push(func() error { pool.Close(); return nil })
		if err := pgstore.Migrate(ctx, pool, pgCfg, log); err != nil {
			return nil, nil, err
		}
		return pgstore.New(pool), pg.Healthcheck(pool), nil

	case "sqlite":
		db, err := gormstore.Open(cfg.SQLiteDSN, &gorm.Config{Logger: gormlogger.Discard})
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		closers.push(sqlDB.Close)
		if err := gormstore.Migrate(ctx, db); err != nil {
			return nil, nil, err
		}
		return gormstore.New(db), sqlDB.PingContext, nil

	case "mongo":
		var mCfg mongo.Config
		if err := config.Load(&mCfg); err != nil {
			return nil, nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, mCfg)
		if err != nil {
			return nil, nil, err
		}
		closers.push(func() error { return db.Client().Disconnect(context.Background()) })
		store := mongostore.NewFromDatabase(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return store, mongo.Healthcheck(db.Client()), nil

	default:
		return nil, nil, fmt.Errorf("unknown FLAG_STORE %q", cfg.Store)
	}
}

func openCache(ctx context.Context, cfg appConfig, closers *closeStack) (featureflag.Cache, httpserver.Check, error) {
	switch cfg.Cache {
	case "none":
		return featureflag.NoOpCache{}, nil, nil

	case "memory":
		return featureflag.NewMemoryCache(cfg.CacheSize), nil, nil

	case "redis":
		var rCfg redis.Config
		if err := config.Load(&rCfg); err != nil {
			return nil, nil, err
		}
		client, err := redis.Connect(ctx, rCfg)
		if err != nil {
			return nil, nil, err
		}
		closers.push(client.Close)
		return rediscache.New(client, cfg.CacheKeyspace), redis.Healthcheck(client), nil

	default:
		return nil, nil, fmt.Errorf("unknown FLAG_CACHE %q", cfg.Cache)
	}
}
