package database_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/database"
)

func TestRowEncodeDecodeRoundTripPreservesCreatedBy(t *testing.T) {
	clock := collab.FixedClock(5000)
	loader := newMemRowLoader(t, clock)
	obj := newTestObject(t)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)

	const rowID = "2f6c1b9e-8d4a-4c3e-9a71-5b0d2e8f4c17"
	_, err = d.CreateRow(clock, database.CreateRowParams{ID: rowID, CreatedBy: 12345}, database.EndPosition())
	require.NoError(t, err)

	loaded, err := loader.Load(rowID)
	require.NoError(t, err)
	require.Equal(t, int64(12345), loaded.Data().CreatedBy)

	docID, err := loaded.DocumentID()
	require.NoError(t, err)
	docID2, err := loaded.DocumentID()
	require.NoError(t, err)
	require.Equal(t, docID, docID2)
}

func TestRowSetGetDeleteCell(t *testing.T) {
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	obj := newTestObject(t)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	row, err := d.CreateRow(clock, database.CreateRowParams{ID: "r1"}, database.EndPosition())
	require.NoError(t, err)

	require.NoError(t, row.SetCell("f1", database.Cell{FieldType: 0, Data: "v1"}, clock))
	cell, ok := row.GetCell("f1")
	require.True(t, ok)
	require.Equal(t, "v1", cell.Data)

	require.NoError(t, row.DeleteCell("f1"))
	_, ok = row.GetCell("f1")
	require.False(t, ok)
}

func TestCommentAddResolveReopenRoundTrip(t *testing.T) {
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	obj := newTestObject(t)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	row, err := d.CreateRow(clock, database.CreateRowParams{ID: "r1"}, database.EndPosition())
	require.NoError(t, err)

	c, err := row.AddComment(clock, database.Comment{Content: "hello", AuthorID: 7})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)

	require.NoError(t, row.ResolveComment(clock, c.ID, 9))
	got, ok := row.GetComment(c.ID)
	require.True(t, ok)
	require.True(t, got.IsResolved)
	require.Equal(t, int64(9), got.ResolvedBy)

	require.NoError(t, row.ReopenComment(c.ID))
	got, ok = row.GetComment(c.ID)
	require.True(t, ok)
	require.False(t, got.IsResolved)
	require.Zero(t, got.ResolvedBy)
}

func TestToggleReactionWiresReadWriteBumpCycle(t *testing.T) {
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	obj := newTestObject(t)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	row, err := d.CreateRow(clock, database.CreateRowParams{ID: "r1"}, database.EndPosition())
	require.NoError(t, err)

	c, err := row.AddComment(clock, database.Comment{Content: "hi"})
	require.NoError(t, err)

	toggleAdd := func(current string) string {
		if current == "" {
			return "👍"
		}
		return current + ",👍"
	}
	require.NoError(t, row.ToggleReaction(clock, c.ID, toggleAdd))
	got, _ := row.GetComment(c.ID)
	require.Equal(t, "👍", got.Reactions)
}

func TestParseSummaryTimeAndMediaCells(t *testing.T) {
	sc := database.ParseSummaryCell(database.NewSummaryCell("a generated summary"))
	require.Equal(t, database.SummaryCellData("a generated summary"), sc)

	tc := database.ParseTimeCell(database.NewTimeCell(3600))
	require.True(t, tc.Valid)
	require.Equal(t, int64(3600), tc.Seconds)

	invalid := database.ParseTimeCell(database.Cell{Data: "not-a-number"})
	require.False(t, invalid.Valid)

	mc := database.ParseMediaCell(database.NewMediaCell([]database.MediaFile{
		{Name: "a.png", URL: "https://example.com/a.png", UploadType: 1, FileType: 2},
	}))
	require.Len(t, mc.Files, 1)
	require.Equal(t, "a.png", mc.Files[0].Name)
}

func TestRollupTypeOptionDefaultsAndRoundTrip(t *testing.T) {
	opt := database.DefaultRollupTypeOption()
	require.Equal(t, database.RollupCalculated, opt.ShowAs)

	opt.RelationFieldID = "f1"
	opt.TargetFieldID = "f2"
	opt.ShowAs = database.RollupUniqueList

	m := opt.ToMap()
	back := database.RollupTypeOptionFromMap(m)
	require.Equal(t, opt, back)
}
