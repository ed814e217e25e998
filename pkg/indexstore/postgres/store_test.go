//go:build e2e

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index"
	indexstorepostgres "github.com/coldvault/core/pkg/indexstore/postgres"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("coldvault_index_test"),
		postgres.WithUsername("coldvault_index_test"),
		postgres.WithPassword("coldvault_index_test"),
		testcontainers.WithWaitStrategyAndDeadline(5*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://coldvault_index_test:coldvault_index_test@%s:%s/coldvault_index_test?sslmode=disable",
		host, port.Port())
}

func TestStoreSaveThenLoadRoundTripsAgainstRealPostgres(t *testing.T) {
	dsn := startPostgres(t)

	store, err := indexstorepostgres.Open(indexstorepostgres.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	user := ids.NewUserId()
	bucket := ids.NewBucketId()
	snap := index.Snapshot{
		Users:   map[ids.UserId]index.UserRecord{user: {ByteLimit: 100, BytesUsed: 5}},
		Buckets: []index.BucketRecord{{ID: bucket, UsedBytes: 5, DataLimit: 1000}},
	}
	require.NoError(t, store.Save(context.Background(), snap))

	got, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.Users, got.Users)
	require.Equal(t, snap.Buckets, got.Buckets)

	// Save again with an empty snapshot to confirm the previous generation's
	// rows are fully replaced, not merged with the new one.
	require.NoError(t, store.Save(context.Background(), index.Snapshot{}))
	got, ok, err = store.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}
