package obslog_test

import (
	"bytes"
	"context"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab/internal/obslog"
	"github.com/collabkit/collab/pkg/logger"
)

func TestLoggerWritesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := obslog.New(obslog.Config{Level: obslog.LevelDebug, JSONOutput: true, Output: buf})

	log.Warn(context.Background(), "section item malformed", "section", "trash")

	var entry map[string]any
	require.NoError(t, gojson.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "section item malformed", entry["message"])
	require.Equal(t, "trash", entry["section"])
}

func TestWithComponentTagsEntries(t *testing.T) {
	buf := &bytes.Buffer{}
	log := obslog.New(obslog.Config{JSONOutput: true, Output: buf}).WithComponent("folder.observer")

	log.Info(context.Background(), "view resolved")

	var entry map[string]any
	require.NoError(t, gojson.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "folder.observer", entry["component"])
}

func TestNoopDiscardsEverything(t *testing.T) {
	var n logger.Noop
	n.Error(context.Background(), "ignored")
}
