package undo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/pkg/undo"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

const localOrigin = "local"
const remoteOrigin = "remote"

func TestUndoRedoMapSet(t *testing.T) {
	doc := crdt.NewDoc(1)
	clock := &fakeClock{t: time.Unix(0, 0)}
	mgr := undo.New(doc, doc.Root(), localOrigin, clock, time.Millisecond)
	defer mgr.Close()

	require.NoError(t, doc.TransactWith(localOrigin, func(txn *crdt.Transaction) error {
		doc.Root().Set(txn, "name", "first")
		return nil
	}))
	clock.advance(time.Second)
	require.NoError(t, doc.TransactWith(localOrigin, func(txn *crdt.Transaction) error {
		doc.Root().Set(txn, "name", "second")
		return nil
	}))

	require.True(t, mgr.CanUndo())
	ok, err := mgr.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	v, _ := doc.Root().Get("name")
	require.Equal(t, "first", v)

	ok, err = mgr.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	v, _ = doc.Root().Get("name")
	require.Equal(t, "second", v)
}

func TestUndoGroupsEditsWithinWindow(t *testing.T) {
	doc := crdt.NewDoc(1)
	clock := &fakeClock{t: time.Unix(0, 0)}
	mgr := undo.New(doc, doc.Root(), localOrigin, clock, 500*time.Millisecond)
	defer mgr.Close()

	require.NoError(t, doc.TransactWith(localOrigin, func(txn *crdt.Transaction) error {
		doc.Root().Set(txn, "a", "1")
		return nil
	}))
	clock.advance(100 * time.Millisecond)
	require.NoError(t, doc.TransactWith(localOrigin, func(txn *crdt.Transaction) error {
		doc.Root().Set(txn, "b", "2")
		return nil
	}))

	ok, err := mgr.Undo()
	require.NoError(t, err)
	require.True(t, ok)

	_, hasA := doc.Root().Get("a")
	_, hasB := doc.Root().Get("b")
	require.False(t, hasA)
	require.False(t, hasB)
	require.False(t, mgr.CanUndo())
}

func TestUndoIgnoresRemoteOrigin(t *testing.T) {
	doc := crdt.NewDoc(1)
	clock := &fakeClock{t: time.Unix(0, 0)}
	mgr := undo.New(doc, doc.Root(), localOrigin, clock, time.Millisecond)
	defer mgr.Close()

	require.NoError(t, doc.TransactWith(remoteOrigin, func(txn *crdt.Transaction) error {
		doc.Root().Set(txn, "synced", "value")
		return nil
	}))

	require.False(t, mgr.CanUndo())
}

func TestUndoOnArray(t *testing.T) {
	doc := crdt.NewDoc(1)
	clock := &fakeClock{t: time.Unix(0, 0)}
	mgr := undo.New(doc, doc.Root(), localOrigin, clock, time.Millisecond)
	defer mgr.Close()

	var arr *crdt.Array
	require.NoError(t, doc.TransactWith(localOrigin, func(txn *crdt.Transaction) error {
		arr = doc.Root().SetArray(txn, "items")
		return nil
	}))
	clock.advance(time.Second)
	require.NoError(t, doc.TransactWith(localOrigin, func(txn *crdt.Transaction) error {
		arr.Insert(txn, 0, "a")
		arr.Insert(txn, 1, "b")
		return nil
	}))

	ok, err := mgr.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, arr.Len())
}

func TestUndoEmptyStack(t *testing.T) {
	doc := crdt.NewDoc(1)
	mgr := undo.New(doc, doc.Root(), localOrigin, nil, 0)
	defer mgr.Close()

	ok, err := mgr.Undo()
	require.NoError(t, err)
	require.False(t, ok)
}
