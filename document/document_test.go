package document_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/document"
)

func newTestObject(t *testing.T) *collab.Object {
	t.Helper()
	obj := collab.New(collab.Origin{ClientUID: 1, DeviceID: "d1"}, "doc-1", 1, collab.Options{})
	t.Cleanup(obj.Close)
	return obj
}

func TestDefaultDocumentHasOnePageOneParagraph(t *testing.T) {
	obj := newTestObject(t)
	doc, err := document.New(obj, collab.SystemClock{})
	require.NoError(t, err)

	page, ok := doc.GetBlock(doc.PageID())
	require.True(t, ok)
	require.Equal(t, document.PageBlockType, page.Type)
	require.Equal(t, "", page.Parent)

	children := doc.GetBlockChildren(doc.PageID())
	require.Len(t, children, 1)
}

func TestInsertBlockOrderAndDelete(t *testing.T) {
	obj := newTestObject(t)
	doc, err := document.New(obj, collab.SystemClock{})
	require.NoError(t, err)

	paragraph := doc.GetBlockChildren(doc.PageID())[0]

	hello, err := doc.InsertBlock(document.Block{Type: "paragraph", Parent: doc.PageID()}, "")
	require.NoError(t, err)
	children := doc.GetBlockChildren(doc.PageID())
	require.Len(t, children, 2)
	require.Equal(t, hello.ID, children[0].ID)

	world, err := doc.InsertBlock(document.Block{Type: "paragraph", Parent: doc.PageID()}, paragraph.ID)
	require.NoError(t, err)
	children = doc.GetBlockChildren(doc.PageID())
	require.Equal(t, []string{hello.ID, paragraph.ID, world.ID}, idsOf(children))

	require.NoError(t, doc.DeleteBlock(paragraph.ID))
	children = doc.GetBlockChildren(doc.PageID())
	require.Equal(t, []string{hello.ID, world.ID}, idsOf(children))

	_, ok := doc.GetBlock(paragraph.ID)
	require.False(t, ok)
}

func TestInsertBlockUnknownParentFails(t *testing.T) {
	obj := newTestObject(t)
	doc, err := document.New(obj, collab.SystemClock{})
	require.NoError(t, err)

	_, err = doc.InsertBlock(document.Block{Type: "paragraph", Parent: "missing"}, "")
	require.ErrorIs(t, err, collab.ErrParentNotFound)
}

func TestMoveBlockDetectsCycle(t *testing.T) {
	obj := newTestObject(t)
	doc, err := document.New(obj, collab.SystemClock{})
	require.NoError(t, err)

	child, err := doc.InsertBlock(document.Block{Type: "paragraph", Parent: doc.PageID()}, "")
	require.NoError(t, err)

	err = doc.MoveBlock(doc.PageID(), child.ID, "")
	require.ErrorIs(t, err, collab.ErrCycleDetected)
}

func TestApplyTextDeltaRetainInsertDelete(t *testing.T) {
	obj := newTestObject(t)
	doc, err := document.New(obj, collab.SystemClock{})
	require.NoError(t, err)

	require.NoError(t, doc.ApplyTextDelta("t1", `[{"insert":"Hello World"}]`))
	delta, ok := doc.GetTextDelta("t1")
	require.True(t, ok)
	require.Contains(t, delta, "Hello World")

	require.NoError(t, doc.ApplyTextDelta("t1", `[{"retain":6},{"delete":5}]`))

	require.NoError(t, doc.ApplyTextDelta("t1", ""))
}

func TestObserveEmitsBlockCreatedAndDeleted(t *testing.T) {
	obj := newTestObject(t)
	doc, err := document.New(obj, collab.SystemClock{})
	require.NoError(t, err)

	changes, cancel := doc.Observe()
	defer cancel()

	block, err := doc.InsertBlock(document.Block{Type: "paragraph", Parent: doc.PageID()}, "")
	require.NoError(t, err)

	change := <-changes
	require.True(t, change.IsLocalChange)
	require.Contains(t, kindsOf(change.Events), document.BlockCreated)

	require.NoError(t, doc.DeleteBlock(block.ID))
	change = <-changes
	require.Contains(t, kindsOf(change.Events), document.BlockDeleted)
}

func TestObserveEmitsBlockMovedOnReparent(t *testing.T) {
	obj := newTestObject(t)
	doc, err := document.New(obj, collab.SystemClock{})
	require.NoError(t, err)
	child, err := doc.InsertBlock(document.Block{Type: "paragraph", Parent: doc.PageID()}, "")
	require.NoError(t, err)
	other, err := doc.InsertBlock(document.Block{Type: "paragraph", Parent: doc.PageID()}, "")
	require.NoError(t, err)

	changes, cancel := doc.Observe()
	defer cancel()

	require.NoError(t, doc.MoveBlock(other.ID, child.ID, ""))
	change := <-changes
	require.Contains(t, kindsOf(change.Events), document.BlockMoved)
}

func TestObserveEmitsTextChanged(t *testing.T) {
	obj := newTestObject(t)
	doc, err := document.New(obj, collab.SystemClock{})
	require.NoError(t, err)

	changes, cancel := doc.Observe()
	defer cancel()

	require.NoError(t, doc.ApplyTextDelta("t1", `[{"insert":"hi"}]`))
	change := <-changes
	require.Contains(t, kindsOf(change.Events), document.TextChanged)
}

func kindsOf(events []document.BlockEvent) []document.BlockEventKind {
	out := make([]document.BlockEventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func idsOf(blocks []document.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}
