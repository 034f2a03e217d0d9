package collab_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab"
)

func testOrigin() collab.Origin {
	return collab.Origin{ClientUID: 1, DeviceID: "device-a"}
}

func TestNewObjectTransactAndRead(t *testing.T) {
	obj := collab.New(testOrigin(), "obj-1", 1, collab.Options{})
	defer obj.Close()

	require.NoError(t, obj.Transact(func(txn *collab.WriteTxn) error {
		obj.Root().Set(txn.Inner(), "title", "Untitled")
		return nil
	}))

	v, ok := obj.Root().Get("title")
	require.True(t, ok)
	require.Equal(t, "Untitled", v)
}

func TestEncodeFullRoundTripOntoFreshObject(t *testing.T) {
	src := collab.New(testOrigin(), "obj-1", 7, collab.Options{})
	defer src.Close()
	require.NoError(t, src.Transact(func(txn *collab.WriteTxn) error {
		src.Root().Set(txn.Inner(), "title", "Untitled")
		return nil
	}))

	encoded, err := src.EncodeFull()
	require.NoError(t, err)

	dst, err := collab.Open(encoded.DocState, testOrigin(), "obj-1", 7, collab.Options{})
	require.NoError(t, err)
	defer dst.Close()

	v, ok := dst.Root().Get("title")
	require.True(t, ok)
	require.Equal(t, "Untitled", v)
}

func TestApplyUpdateIsNotUndoable(t *testing.T) {
	local := collab.New(testOrigin(), "obj-1", 1, collab.Options{})
	defer local.Close()
	remote := collab.New(collab.Origin{ClientUID: 2, DeviceID: "device-b"}, "obj-1", 2, collab.Options{})
	defer remote.Close()

	require.NoError(t, remote.Transact(func(txn *collab.WriteTxn) error {
		remote.Root().Set(txn.Inner(), "synced", "value")
		return nil
	}))
	encoded, err := remote.EncodeFull()
	require.NoError(t, err)

	require.NoError(t, local.ApplyUpdate(encoded.DocState, collab.Origin{ClientUID: 2, DeviceID: "device-b"}))
	v, ok := local.Root().Get("synced")
	require.True(t, ok)
	require.Equal(t, "value", v)

	require.False(t, local.CanUndo())
}

func TestUndoRedoThroughObject(t *testing.T) {
	obj := collab.New(testOrigin(), "obj-1", 1, collab.Options{UndoWindow: time.Millisecond})
	defer obj.Close()

	require.NoError(t, obj.Transact(func(txn *collab.WriteTxn) error {
		obj.Root().Set(txn.Inner(), "name", "first")
		return nil
	}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, obj.Transact(func(txn *collab.WriteTxn) error {
		obj.Root().Set(txn.Inner(), "name", "second")
		return nil
	}))

	require.True(t, obj.CanUndo())
	ok, err := obj.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	v, _ := obj.Root().Get("name")
	require.Equal(t, "first", v)

	ok, err = obj.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	v, _ = obj.Root().Get("name")
	require.Equal(t, "second", v)
}

type recordingPlugin struct {
	updates      int
	localUpdates int
	afterTxns    int
}

func (p *recordingPlugin) Init(string, *collab.WriteTxn)                 {}
func (p *recordingPlugin) DidInit(string)                                {}
func (p *recordingPlugin) ReceiveUpdate(string, collab.Origin, []byte)   { p.updates++ }
func (p *recordingPlugin) ReceiveLocalUpdate(collab.Origin, string, []byte) {
	p.localUpdates++
}
func (p *recordingPlugin) AfterTransaction(string, collab.Origin) { p.afterTxns++ }

func TestPluginNotifiedOnLocalTransaction(t *testing.T) {
	obj := collab.New(testOrigin(), "obj-1", 1, collab.Options{})
	defer obj.Close()

	plug := &recordingPlugin{}
	obj.AddPlugin(plug)

	require.NoError(t, obj.Transact(func(txn *collab.WriteTxn) error {
		obj.Root().Set(txn.Inner(), "a", "1")
		return nil
	}))

	require.Equal(t, 1, plug.updates)
	require.Equal(t, 1, plug.localUpdates)
	require.Equal(t, 1, plug.afterTxns)
}

func TestApplyUpdateRejectsGarbage(t *testing.T) {
	obj := collab.New(testOrigin(), "obj-1", 1, collab.Options{})
	defer obj.Close()

	err := obj.ApplyUpdate([]byte("garbage"), collab.Origin{ClientUID: 2})
	require.ErrorIs(t, err, collab.ErrDecodeError)
}
