package crdt

import "sync"

// container is implemented by Map, Array and Text: anything that can sit
// as a nested value inside a Map entry or Array item.
type container interface {
	isContainer()
}

func (*Map) isContainer()   {}
func (*Array) isContainer() {}
func (*Text) isContainer()  {}

// Doc is one CRDT document: a client id, a Lamport clock, the resulting
// state vector, a root Map and the set of commit observers subscribed to
// it. A Doc is owned exclusively by the collab.Object that created it —
// the mutex below guards against accidental concurrent use, it is not a
// substitute for single-owner access.
type Doc struct {
	mu          sync.Mutex
	clientID    uint64
	clock       uint64
	stateVector map[uint64]uint64
	root        *Map
	observers   []*observerHandle
	nextHandle  uint64
}

type observerHandle struct {
	id uint64
	fn func(CommitEvent)
}

// NewDoc creates an empty document scoped to clientID.
func NewDoc(clientID uint64) *Doc {
	d := &Doc{clientID: clientID, stateVector: map[uint64]uint64{}}
	d.root = newMap(d, nil)
	return d
}

// ClientID returns the document's own client id.
func (d *Doc) ClientID() uint64 { return d.clientID }

// Root returns the document's root map.
func (d *Doc) Root() *Map { return d.root }

func (d *Doc) bumpStateVector(id ID) {
	if id.Clock > d.stateVector[id.Client] {
		d.stateVector[id.Client] = id.Clock
	}
}

// Transact opens a read-only transaction. Mutating the document through
// it is a programming error, but not guarded against at the type level.
func (d *Doc) Transact(fn func(*Transaction) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	txn := &Transaction{doc: d}
	return fn(txn)
}

// TransactWith opens a write transaction carrying origin. On successful
// return, every mutation performed through txn is committed atomically
// and observers fire once with the coalesced events. If fn returns an
// error, every mutation already applied through txn is reverted before
// TransactWith returns, so a failing transaction never leaves a partial
// effect behind and observers never see it.
func (d *Doc) TransactWith(origin Origin, fn func(*Transaction) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	txn := &Transaction{doc: d, origin: origin}
	if err := fn(txn); err != nil {
		rollback(d, txn)
		return err
	}
	if len(txn.events) == 0 {
		return nil
	}
	ce := CommitEvent{Origin: origin, Events: txn.events}
	for _, obs := range append([]*observerHandle(nil), d.observers...) {
		obs.fn(ce)
	}
	return nil
}

// Observe registers fn to run once per committed write transaction.
// Returns a function that cancels the subscription.
func (d *Doc) Observe(fn func(CommitEvent)) func() {
	d.nextHandle++
	h := &observerHandle{id: d.nextHandle, fn: fn}
	d.observers = append(d.observers, h)
	return func() {
		for i, o := range d.observers {
			if o.id == h.id {
				d.observers = append(d.observers[:i], d.observers[i+1:]...)
				return
			}
		}
	}
}
