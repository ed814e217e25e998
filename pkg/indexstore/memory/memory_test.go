package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index"
	"github.com/coldvault/core/pkg/indexstore/memory"
)

func TestStoreLoadBeforeSaveReportsNotFound(t *testing.T) {
	s := memory.New()
	_, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSaveThenLoadRoundTrips(t *testing.T) {
	s := memory.New()
	user := ids.NewUserId()
	snap := index.Snapshot{
		Users: map[ids.UserId]index.UserRecord{
			user: {ByteLimit: 1 << 30, BytesUsed: 42},
		},
	}

	require.NoError(t, s.Save(context.Background(), snap))

	got, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, got)
}
