package jsonutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab/internal/jsonutil"
)

func TestRoundTrip(t *testing.T) {
	s, err := jsonutil.ToJSON(map[string]any{"is_space": true, "is_private": false})
	require.NoError(t, err)

	v, err := jsonutil.FromJSON(s)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, m["is_space"])
}

func TestFromJSONEmpty(t *testing.T) {
	v, err := jsonutil.FromJSON("")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestIntoBadJSON(t *testing.T) {
	var dst map[string]any
	err := jsonutil.Into("{not json", &dst)
	require.Error(t, err)
}
