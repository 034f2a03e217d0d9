package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/pkg/schema"
)

type fieldRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestMapExtGetters(t *testing.T) {
	doc := crdt.NewDoc(1)
	require.NoError(t, doc.TransactWith("local", func(txn *crdt.Transaction) error {
		doc.Root().Set(txn, "name", "General")
		doc.Root().Set(txn, "width", int64(320))
		return nil
	}))

	ext := schema.Ext(doc.Root())
	require.Equal(t, "General", ext.GetString("name"))
	require.Equal(t, int64(320), ext.GetInt64("width"))
	_, ok := ext.GetOptString("missing")
	require.False(t, ok)
}

func TestOrderedListInsertAndDecode(t *testing.T) {
	doc := crdt.NewDoc(1)
	var arr *crdt.Array
	require.NoError(t, doc.TransactWith("local", func(txn *crdt.Transaction) error {
		arr = doc.Root().SetArray(txn, "fields")
		return nil
	}))

	list := schema.NewOrderedList[fieldRecord](arr)
	require.NoError(t, doc.TransactWith("local", func(txn *crdt.Transaction) error {
		require.NoError(t, list.Append(txn, fieldRecord{ID: "f1", Name: "Title"}))
		require.NoError(t, list.Append(txn, fieldRecord{ID: "f2", Name: "Status"}))
		return nil
	}))

	all := list.All()
	require.Len(t, all, 2)
	require.Equal(t, "f1", all[0].ID)
	require.Equal(t, 1, list.IndexOf("id", "f2"))
}

func TestOrderedListDeleteByID(t *testing.T) {
	doc := crdt.NewDoc(1)
	var arr *crdt.Array
	require.NoError(t, doc.TransactWith("local", func(txn *crdt.Transaction) error {
		arr = doc.Root().SetArray(txn, "fields")
		return nil
	}))
	list := schema.NewOrderedList[fieldRecord](arr)
	require.NoError(t, doc.TransactWith("local", func(txn *crdt.Transaction) error {
		require.NoError(t, list.Append(txn, fieldRecord{ID: "f1"}))
		require.NoError(t, list.Append(txn, fieldRecord{ID: "f2"}))
		return nil
	}))

	require.NoError(t, doc.TransactWith("local", func(txn *crdt.Transaction) error {
		require.True(t, list.DeleteByID(txn, "id", "f1"))
		return nil
	}))
	require.Equal(t, 1, list.Len())
	v, ok := list.At(0)
	require.True(t, ok)
	require.Equal(t, "f2", v.ID)
}
