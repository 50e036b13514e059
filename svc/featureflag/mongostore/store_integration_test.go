//go:build integration

package mongostore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmitrymomot/flagkit/pkg/mongo"
	"github.com/dmitrymomot/flagkit/svc/featureflag"
	"github.com/dmitrymomot/flagkit/svc/featureflag/mongostore"
	"github.com/dmitrymomot/flagkit/svc/featureflag/storetest"
)

func startMongo(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("27017/tcp"),
				wait.ForLog("Waiting for connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err, "start mongo container")
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestStore_Integration(t *testing.T) {
	ctx := context.Background()
	cfg := mongo.Config{
		ConnectionURL:  startMongo(t),
		Database:       "flagkit_test",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    10,
		RetryAttempts:  10,
		RetryInterval:  500 * time.Millisecond,
	}

	db, err := mongo.NewWithDatabase(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })
	require.NoError(t, mongo.Healthcheck(db.Client())(ctx))

	storetest.Run(t, func(t *testing.T) featureflag.Store {
		coll := db.Collection(mongostore.DefaultCollection)
		require.NoError(t, coll.Drop(ctx))
		store := mongostore.New(coll)
		require.NoError(t, store.EnsureIndexes(ctx))
		return store
	})
}
