package ids_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/ids"
)

func TestHashBytesIsDeterministic(t *testing.T) {
	data := []byte("some blob content")
	h1 := ids.HashBytes(data)
	h2 := ids.HashBytes(data)
	assert.Equal(t, h1, h2)

	other := ids.HashBytes([]byte("different content"))
	assert.NotEqual(t, h1, other)
}

func TestUserIdRoundTripsThroughText(t *testing.T) {
	original := ids.NewUserId()

	text, err := original.MarshalText()
	require.NoError(t, err)

	parsed, err := ids.ParseUserId(string(text))
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseHashRejectsWrongLength(t *testing.T) {
	_, err := ids.ParseHash("deadbeef")
	assert.Error(t, err)
}

func TestZeroValueIsZero(t *testing.T) {
	var id ids.FileId
	assert.True(t, id.IsZero())
	assert.False(t, ids.NewFileId().IsZero())
}
