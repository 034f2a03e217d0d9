package idgen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab/internal/idgen"
)

func TestNewIsValidUUID(t *testing.T) {
	id := idgen.New()
	require.True(t, idgen.Valid(id))
}

func TestDeriveIsDeterministic(t *testing.T) {
	rowID := idgen.New()
	a, err := idgen.Derive(rowID, "document_id")
	require.NoError(t, err)
	b, err := idgen.Derive(rowID, "document_id")
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := idgen.Derive(rowID, "icon_id")
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestDeriveRejectsBadRowID(t *testing.T) {
	_, err := idgen.Derive("not-a-uuid", "document_id")
	require.Error(t, err)
}

func TestUserKeyRoundTrip(t *testing.T) {
	key := idgen.UserKey(12345)
	require.Equal(t, "12345", key)
	uid, err := idgen.ParseUserKey(key)
	require.NoError(t, err)
	require.Equal(t, int64(12345), uid)
}
