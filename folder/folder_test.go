package folder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/folder"
)

func newTestObject(t *testing.T) *collab.Object {
	t.Helper()
	obj := collab.New(collab.Origin{ClientUID: 1, DeviceID: "d1"}, "folder-1", 1, collab.Options{})
	t.Cleanup(obj.Close)
	return obj
}

func TestNewFolderHasWorkspaceRootView(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	require.Equal(t, "ws-1", f.WorkspaceID())
	root, ok := f.GetView("ws-1")
	require.True(t, ok)
	require.Equal(t, "Workspace", root.Name)
	require.True(t, folder.IsSpace(root))
}

func TestInsertViewOrderAndMove(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	a, err := f.InsertView(folder.View{Name: "A", Layout: "document"}, "ws-1", "")
	require.NoError(t, err)
	b, err := f.InsertView(folder.View{Name: "B", Layout: "document"}, "ws-1", "")
	require.NoError(t, err)

	children := f.GetChildViewIDs("ws-1")
	require.Equal(t, []string{b.ID, a.ID}, children)

	require.NoError(t, f.MoveView(a.ID, ""))
	children = f.GetChildViewIDs("ws-1")
	require.Equal(t, []string{a.ID, b.ID}, children)
}

func TestInsertViewUnknownParentFails(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	_, err = f.InsertView(folder.View{Name: "orphan"}, "missing", "")
	require.ErrorIs(t, err, collab.ErrParentNotFound)
}

func TestMoveNestedViewDetectsCycle(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	child, err := f.InsertView(folder.View{Name: "child"}, "ws-1", "")
	require.NoError(t, err)

	err = f.MoveNestedView("ws-1", child.ID, "")
	require.ErrorIs(t, err, collab.ErrCycleDetected)
}

func TestDeleteViewsRemovesSubtree(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	parent, err := f.InsertView(folder.View{Name: "parent"}, "ws-1", "")
	require.NoError(t, err)
	child, err := f.InsertView(folder.View{Name: "child"}, parent.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.DeleteViews([]string{parent.ID}))

	_, ok := f.GetView(parent.ID)
	require.False(t, ok)
	_, ok = f.GetView(child.ID)
	require.False(t, ok)
	require.NotContains(t, f.GetChildViewIDs("ws-1"), parent.ID)
}

func TestSectionAddMoveDeleteAndClear(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	a, err := f.InsertView(folder.View{Name: "A"}, "ws-1", "")
	require.NoError(t, err)
	b, err := f.InsertView(folder.View{Name: "B"}, "ws-1", "")
	require.NoError(t, err)

	require.NoError(t, f.AddSectionItems(folder.SectionFavorite, 1, []string{a.ID, b.ID}))
	items := f.GetSectionItems(folder.SectionFavorite, 1)
	require.Len(t, items, 2)

	require.NoError(t, f.AddSectionItems(folder.SectionFavorite, 1, []string{a.ID}))
	items = f.GetSectionItems(folder.SectionFavorite, 1)
	require.Len(t, items, 2)

	require.NoError(t, f.MoveSectionItem(folder.SectionFavorite, 1, b.ID, ""))
	items = f.GetSectionItems(folder.SectionFavorite, 1)
	require.Equal(t, b.ID, items[0].ID)

	require.NoError(t, f.DeleteSectionItems(folder.SectionFavorite, 1, []string{a.ID}))
	items = f.GetSectionItems(folder.SectionFavorite, 1)
	require.Len(t, items, 1)
	require.Equal(t, b.ID, items[0].ID)

	require.NoError(t, f.ClearSectionForUser(folder.SectionFavorite, 1))
	require.Empty(t, f.GetSectionItems(folder.SectionFavorite, 1))

	otherUserItems := f.GetSectionItems(folder.SectionFavorite, 2)
	require.Empty(t, otherUserItems)
}

func TestCurrentViewResolutionFallbackChain(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	require.Equal(t, "", f.GetCurrentView(1))

	space, err := f.InsertView(folder.View{Name: "Space", Extra: folder.EncodeSpaceInfo(folder.SpaceInfo{})}, "ws-1", "")
	require.NoError(t, err)
	spaceChild, err := f.InsertView(folder.View{Name: "child"}, space.ID, "")
	require.NoError(t, err)
	require.Equal(t, spaceChild.ID, f.GetCurrentView(1))

	v, err := f.InsertView(folder.View{Name: "A"}, "ws-1", "")
	require.NoError(t, err)
	require.NoError(t, f.SetCurrentView(v.ID))
	require.Equal(t, v.ID, f.GetCurrentView(1))
	require.Equal(t, v.ID, f.GetCurrentView(2))

	v2, err := f.InsertView(folder.View{Name: "B"}, "ws-1", "")
	require.NoError(t, err)
	require.NoError(t, f.SetCurrentViewForUser(1, v2.ID))
	require.Equal(t, v2.ID, f.GetCurrentView(1))
	require.Equal(t, v.ID, f.GetCurrentView(2))
}

func TestDeleteViewsRemovesFromSections(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	parent, err := f.InsertView(folder.View{Name: "parent"}, "ws-1", "")
	require.NoError(t, err)
	child, err := f.InsertView(folder.View{Name: "child"}, parent.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.AddSectionItems(folder.SectionFavorite, 1, []string{parent.ID, child.ID}))
	require.NoError(t, f.AddSectionItems(folder.SectionTrash, 2, []string{child.ID}))

	require.NoError(t, f.DeleteViews([]string{parent.ID}))

	require.Empty(t, f.GetSectionItems(folder.SectionFavorite, 1))
	require.Empty(t, f.GetSectionItems(folder.SectionTrash, 2))
}

func TestGetViewForUserEnrichesFavoriteAndPrivateBits(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	space, err := f.InsertView(folder.View{Name: "Private", Extra: folder.EncodeSpaceInfo(folder.SpaceInfo{IsPrivate: true})}, "ws-1", "")
	require.NoError(t, err)
	require.NoError(t, f.AddSectionItems(folder.SectionFavorite, 1, []string{space.ID}))

	uid := int64(1)
	view, ok := f.GetViewForUser(space.ID, &uid)
	require.True(t, ok)
	require.True(t, view.IsFavorite)
	require.True(t, view.IsPrivate)

	raw, ok := f.GetViewForUser(space.ID, nil)
	require.True(t, ok)
	require.False(t, raw.IsFavorite)
}

func TestGetFolderDataAssemblesPerUserSnapshot(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)

	a, err := f.InsertView(folder.View{Name: "A"}, "ws-1", "")
	require.NoError(t, err)
	require.NoError(t, f.AddSectionItems(folder.SectionFavorite, 1, []string{a.ID}))

	uid := int64(1)
	data, ok := f.GetFolderData("ws-1", &uid)
	require.True(t, ok)
	require.Equal(t, "ws-1", data.WorkspaceID)
	require.Contains(t, data.Relation, "ws-1")
	require.Len(t, data.Sections[folder.SectionFavorite], 1)

	_, ok = f.GetFolderData("other-workspace", &uid)
	require.False(t, ok)
}

func TestObserveEmitsViewMovedOnReorder(t *testing.T) {
	obj := newTestObject(t)
	f, err := folder.New(obj, collab.SystemClock{}, "ws-1", 1)
	require.NoError(t, err)
	a, err := f.InsertView(folder.View{Name: "A"}, "ws-1", "")
	require.NoError(t, err)
	_, err = f.InsertView(folder.View{Name: "B"}, "ws-1", "")
	require.NoError(t, err)

	changes, cancel := f.Observe()
	defer cancel()

	require.NoError(t, f.MoveView(a.ID, ""))
	change := <-changes
	require.True(t, change.IsLocalChange)
	found := false
	for _, e := range change.Events {
		if e.Kind == folder.ViewMoved {
			found = true
		}
	}
	require.True(t, found)
}
