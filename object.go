package collab

import (
	"fmt"
	"time"

	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/pkg/logger"
	"github.com/collabkit/collab/pkg/undo"
)

// Origin identifies the client/device that issued a write. Every local
// transaction is stamped with the Object's own Origin so plugins and
// observers can tell local edits from ones applied from a remote update.
type Origin struct {
	ClientUID int64
	DeviceID  string
}

// EncodedCollab is the full on-wire form of an Object: a CRDT doc state
// plus the state vector it was encoded against. It is the only supported
// serialization of a complete Object.
type EncodedCollab struct {
	DocState    []byte
	StateVector []byte
}

// WriteTxn is the write handle body packages use inside a transaction.
// It wraps the CRDT runtime's transaction so callers outside this module
// never need to import internal/crdt directly for the common path.
type WriteTxn struct {
	inner *crdt.Transaction
}

func (t *WriteTxn) Origin() Origin { return t.inner.Origin().(Origin) }

// Inner exposes the underlying CRDT transaction for body packages (which
// live inside this module and operate on *crdt.Map/*crdt.Array/*crdt.Text
// directly).
func (t *WriteTxn) Inner() *crdt.Transaction { return t.inner }

// Options configures an Object at construction time. There is no global
// configuration: clock source, logger and undo debounce window are all
// explicit constructor arguments.
type Options struct {
	Clock      Clock
	Logger     logger.Logger
	UndoWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.Logger == nil {
		o.Logger = logger.Noop{}
	}
	if o.UndoWindow <= 0 {
		o.UndoWindow = undo.Window
	}
	return o
}

// Object is one CRDT document representing a single business entity
// (document, folder, database or row). It owns the CRDT doc exclusively;
// body handles built on top of it hold only references into that doc and
// must not outlive the Object.
type Object struct {
	doc      *crdt.Doc
	objectID string
	origin   Origin
	opts     Options
	plugins  []Plugin
	undoMgr  *undo.Manager
}

// New creates an empty Object: a fresh CRDT doc with only its root map.
// Body packages are responsible for writing the typed root keys
// (document/folder/database + meta) in their own New* constructors,
// immediately after this call, inside the same Init-style transaction.
func New(origin Origin, objectID string, clientID uint64, opts Options) *Object {
	o := &Object{
		doc:      crdt.NewDoc(clientID),
		objectID: objectID,
		origin:   origin,
		opts:     opts.withDefaults(),
	}
	o.undoMgr = undo.New(o.doc, o.doc.Root(), o.crdtOrigin(), undoClockAdapter{Clock: o.opts.Clock}, o.opts.UndoWindow)
	return o
}

// undoClockAdapter lets pkg/undo.Clock (time.Time-based) be satisfied by
// collab.Clock (millisecond-int64-based) without pkg/undo importing this
// package. Only New uses it, as a tiny interior adapter.
type undoClockAdapter struct{ Clock }

func (a undoClockAdapter) Now() time.Time {
	return time.UnixMilli(a.NowMillis())
}

func (o *Object) crdtOrigin() crdt.Origin { return crdt.Origin(o.origin) }

// ObjectID returns the Object's own id.
func (o *Object) ObjectID() string { return o.objectID }

// Origin returns the Object's local origin.
func (o *Object) Origin() Origin { return o.origin }

// Logger returns the logger the Object was constructed with.
func (o *Object) Logger() logger.Logger { return o.opts.Logger }

// Clock returns the timestamp source the Object was constructed with.
func (o *Object) Clock() Clock { return o.opts.Clock }

// Root returns the document's root CRDT map, for body packages to attach
// their typed roots to.
func (o *Object) Root() *crdt.Map { return o.doc.Root() }

// Doc exposes the underlying CRDT doc. Body packages within this module
// use it for nested ObserveDeep subscriptions; external callers should
// prefer the typed body APIs.
func (o *Object) Doc() *crdt.Doc { return o.doc }

// AddPlugin registers a plugin. Plugins are shared collaborators (e.g. a
// persistence layer) notified of every applied update.
func (o *Object) AddPlugin(p Plugin) {
	o.plugins = append(o.plugins, p)
}

// Open decodes doc-state bytes into a fresh Object scoped to clientID.
// Bytes are applied as an update before any plugin or observer is
// attached, matching the persistence contract for DataSource.DocState.
func Open(docState []byte, origin Origin, objectID string, clientID uint64, opts Options) (*Object, error) {
	o := New(origin, objectID, clientID, opts)
	if len(docState) > 0 {
		if err := o.doc.ApplyUpdate(docState, o.crdtOrigin()); err != nil {
			return nil, wrapDecodeErr(err)
		}
	}
	return o, nil
}

// Transact opens a write transaction stamped with the Object's own
// origin, runs fn, and notifies plugins (ReceiveUpdate,
// ReceiveLocalUpdate, AfterTransaction) and the undo manager once the
// transaction commits. Every local mutation passes through this method.
func (o *Object) Transact(fn func(*WriteTxn) error) error {
	var update []byte
	err := o.doc.TransactWith(o.crdtOrigin(), func(txn *crdt.Transaction) error {
		return fn(&WriteTxn{inner: txn})
	})
	if err != nil {
		return err
	}
	update, encErr := o.doc.EncodeStateAsUpdate(nil)
	if encErr == nil {
		for _, p := range o.plugins {
			p.ReceiveUpdate(o.objectID, o.origin, update)
			p.ReceiveLocalUpdate(o.origin, o.objectID, update)
		}
	}
	for _, p := range o.plugins {
		p.AfterTransaction(o.objectID, o.origin)
	}
	return nil
}

// ApplyUpdate merges remote update bytes into the document. It is never
// recorded by the undo manager (origin is not the local origin) and
// notifies plugins with ReceiveUpdate / AfterTransaction but never
// ReceiveLocalUpdate.
func (o *Object) ApplyUpdate(update []byte, remoteOrigin Origin) error {
	if err := o.doc.ApplyUpdate(update, crdt.Origin(remoteOrigin)); err != nil {
		return wrapDecodeErr(err)
	}
	for _, p := range o.plugins {
		p.ReceiveUpdate(o.objectID, remoteOrigin, update)
	}
	for _, p := range o.plugins {
		p.AfterTransaction(o.objectID, remoteOrigin)
	}
	return nil
}

// EncodeFull returns the full v1-compatible encoding of the document:
// doc state plus the state vector it corresponds to.
func (o *Object) EncodeFull() (EncodedCollab, error) {
	state, err := o.doc.EncodeStateAsUpdate(nil)
	if err != nil {
		return EncodedCollab{}, newInternalError(err)
	}
	return EncodedCollab{DocState: state, StateVector: o.doc.EncodeStateVector()}, nil
}

// CanUndo reports whether the undo manager has an entry to undo.
func (o *Object) CanUndo() bool { return o.undoMgr.CanUndo() }

// CanRedo reports whether the undo manager has an entry to redo.
func (o *Object) CanRedo() bool { return o.undoMgr.CanRedo() }

// Undo reverts the most recent local undo unit. Returns false if the
// undo stack is empty.
func (o *Object) Undo() (bool, error) {
	ok, err := o.undoMgr.Undo()
	if err != nil {
		return false, newInternalError(err)
	}
	return ok, nil
}

// Redo re-applies the most recently undone unit. Returns false if the
// redo stack is empty.
func (o *Object) Redo() (bool, error) {
	ok, err := o.undoMgr.Redo()
	if err != nil {
		return false, newInternalError(err)
	}
	return ok, nil
}

// Close releases the Object's undo subscription. The underlying doc is
// owned exclusively by the Object and is dropped with it.
func (o *Object) Close() {
	o.undoMgr.Close()
}

func wrapDecodeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrDecodeError, err)
}
