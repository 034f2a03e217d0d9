package crdt

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// ErrDecodeError is returned when update bytes are not valid CBOR or do
// not describe a well-formed document tree. A failed ApplyUpdate leaves
// the document unchanged.
var ErrDecodeError = errors.New("crdt: malformed update")

const (
	kindMap = iota
	kindArray
	kindText
)

type nodeWire struct {
	Kind       int             `cbor:"k"`
	MapEntries []mapEntryWire  `cbor:"m,omitempty"`
	ArrayItems []arrayItemWire `cbor:"a,omitempty"`
	TextItems  []textItemWire  `cbor:"t,omitempty"`
}

type mapEntryWire struct {
	Key        string    `cbor:"key"`
	ID         ID        `cbor:"id"`
	Deleted    bool      `cbor:"del,omitempty"`
	IsNew      bool      `cbor:"new,omitempty"`
	HasLeaf    bool      `cbor:"leaf,omitempty"`
	Leaf       any       `cbor:"v,omitempty"`
	NestedKind int       `cbor:"nk,omitempty"`
	Nested     *nodeWire `cbor:"n,omitempty"`
}

type arrayItemWire struct {
	ID         ID        `cbor:"id"`
	Left       ID        `cbor:"left"`
	Deleted    bool      `cbor:"del,omitempty"`
	IsNew      bool      `cbor:"new,omitempty"`
	HasLeaf    bool      `cbor:"leaf,omitempty"`
	Leaf       any       `cbor:"v,omitempty"`
	NestedKind int       `cbor:"nk,omitempty"`
	Nested     *nodeWire `cbor:"n,omitempty"`
}

type textItemWire struct {
	ID      ID    `cbor:"id"`
	Left    ID    `cbor:"left"`
	Deleted bool  `cbor:"del,omitempty"`
	Ch      int32 `cbor:"ch"`
}

// EncodeStateVector returns the compact per-client clock table that lets
// a peer ask for only what it's missing.
func (d *Doc) EncodeStateVector() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := cbor.Marshal(d.stateVector)
	if err != nil {
		// stateVector is a map[uint64]uint64: it always encodes.
		panic("crdt: state vector failed to encode: " + err.Error())
	}
	return buf
}

// EncodeStateAsUpdate encodes every operation the document holds that the
// peer identified by sv has not seen yet. An empty or nil sv yields the
// full document state, which is what EncodeFull relies on.
//
// Deviation from a byte-for-byte Yjs update log: deletions are carried on
// the deleted item's original insertion id, so a delete applied after the
// insert has already reached a peer will not itself be replayed to that
// peer by a later differential update — only a full resync (empty sv)
// is guaranteed to carry tombstones. Acceptable here because the network
// sync this would matter for is out of scope here; see DESIGN.md.
func (d *Doc) EncodeStateAsUpdate(sv []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	peerSV := map[uint64]uint64{}
	if len(sv) > 0 {
		if err := cbor.Unmarshal(sv, &peerSV); err != nil {
			return nil, fmt.Errorf("%w: bad state vector: %v", ErrDecodeError, err)
		}
	}

	root := encodeContainer(d.root, peerSV)
	buf, err := cbor.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("crdt: failed to encode update: %w", err)
	}
	return buf, nil
}

func encodeContainer(c container, sv map[uint64]uint64) *nodeWire {
	switch v := c.(type) {
	case *Map:
		return encodeMap(v, sv)
	case *Array:
		return encodeArray(v, sv)
	case *Text:
		return encodeText(v, sv)
	default:
		return nil
	}
}

func kindOf(c container) int {
	switch c.(type) {
	case *Map:
		return kindMap
	case *Array:
		return kindArray
	case *Text:
		return kindText
	default:
		return kindMap
	}
}

func encodeMap(m *Map, sv map[uint64]uint64) *nodeWire {
	nw := &nodeWire{Kind: kindMap}
	for key, e := range m.entries {
		isNew := e.id.Clock > sv[e.id.Client]
		var nested *nodeWire
		if e.nested != nil {
			nested = encodeContainer(e.nested, sv)
		}
		if !isNew && isEmptyNode(nested) {
			continue
		}
		mw := mapEntryWire{Key: key, ID: e.id, Deleted: e.deleted, IsNew: isNew}
		if e.nested == nil {
			mw.HasLeaf = true
			mw.Leaf = e.value
		} else {
			mw.NestedKind = kindOf(e.nested)
			mw.Nested = nested
		}
		nw.MapEntries = append(nw.MapEntries, mw)
	}
	return nw
}

func encodeArray(a *Array, sv map[uint64]uint64) *nodeWire {
	nw := &nodeWire{Kind: kindArray}
	for _, it := range a.items {
		isNew := it.id.Clock > sv[it.id.Client]
		var nested *nodeWire
		if it.nested != nil {
			nested = encodeContainer(it.nested, sv)
		}
		if !isNew && isEmptyNode(nested) {
			continue
		}
		iw := arrayItemWire{ID: it.id, Left: it.left, Deleted: it.deleted, IsNew: isNew}
		if it.nested == nil {
			iw.HasLeaf = true
			iw.Leaf = it.value
		} else {
			iw.NestedKind = kindOf(it.nested)
			iw.Nested = nested
		}
		nw.ArrayItems = append(nw.ArrayItems, iw)
	}
	return nw
}

func encodeText(t *Text, sv map[uint64]uint64) *nodeWire {
	nw := &nodeWire{Kind: kindText}
	for _, it := range t.items {
		if it.id.Clock <= sv[it.id.Client] {
			continue
		}
		nw.TextItems = append(nw.TextItems, textItemWire{ID: it.id, Left: it.left, Deleted: it.deleted, Ch: it.ch})
	}
	return nw
}

func isEmptyNode(nw *nodeWire) bool {
	return nw == nil || (len(nw.MapEntries) == 0 && len(nw.ArrayItems) == 0 && len(nw.TextItems) == 0)
}

// ApplyUpdate merges update bytes produced by EncodeStateAsUpdate /
// EncodeFull into the document under origin. On decode failure the
// document is left untouched and ErrDecodeError is returned. Observers
// fire with origin exactly as for a local write.
func (d *Doc) ApplyUpdate(update []byte, origin Origin) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Leaves decode to the shapes Map documents: integers as int64 and
	// maps as map[string]any.
	dm, err := cbor.DecOptions{
		IntDec:         cbor.IntDecConvertSigned,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return fmt.Errorf("crdt: failed to build decoder: %w", err)
	}
	var root nodeWire
	if err := dm.Unmarshal(update, &root); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeError, err)
	}
	if root.Kind != kindMap {
		return fmt.Errorf("%w: root must be a map", ErrDecodeError)
	}

	txn := &Transaction{doc: d, origin: origin}
	mergeMap(txn, d.root, &root)
	d.bumpOwnClock()

	if len(txn.events) > 0 {
		ce := CommitEvent{Origin: origin, Events: txn.events}
		for _, obs := range append([]*observerHandle(nil), d.observers...) {
			obs.fn(ce)
		}
	}
	return nil
}

// bumpOwnClock ensures future locally-minted ids never collide with ids
// merged in for this same client (reopening a persisted doc replays its
// own prior history through ApplyUpdate).
func (d *Doc) bumpOwnClock() {
	if c, ok := d.stateVector[d.clientID]; ok && c > d.clock {
		d.clock = c
	}
}

func mergeMap(txn *Transaction, dst *Map, src *nodeWire) {
	for _, mw := range src.MapEntries {
		dst.doc.bumpStateVector(mw.ID)
		existing, hasExisting := dst.entries[mw.Key]

		if mw.Nested != nil {
			var child container
			if hasExisting && existing.nested != nil {
				child = existing.nested
			} else {
				child = makeContainer(dst.doc, childPath(dst.path, mw.Key, -1, false), mw.NestedKind)
				dst.entries[mw.Key] = &mapEntry{id: mw.ID, nested: child}
				if mw.IsNew {
					txn.record(Event{Path: dst.path, Kind: EventMapSet, Key: mw.Key, NewValue: child})
				}
			}
			mergeContainer(txn, child, mw.Nested)
			continue
		}

		if !mw.IsNew {
			continue
		}
		if hasExisting && !existing.id.Less(mw.ID) {
			continue // local entry is already at least as new
		}
		old, hadOld := dst.Get(mw.Key)
		dst.entries[mw.Key] = &mapEntry{id: mw.ID, value: mw.Leaf, deleted: mw.Deleted}
		if mw.Deleted {
			txn.record(Event{Path: dst.path, Kind: EventMapDelete, Key: mw.Key, OldValue: valueOrNil(old, hadOld), HadOld: hadOld})
		} else {
			txn.record(Event{Path: dst.path, Kind: EventMapSet, Key: mw.Key, NewValue: mw.Leaf, OldValue: valueOrNil(old, hadOld), HadOld: hadOld})
		}
	}
}

func mergeArray(txn *Transaction, dst *Array, src *nodeWire) {
	for _, iw := range src.ArrayItems {
		dst.doc.bumpStateVector(iw.ID)

		var existing *arrayItem
		idx := -1
		for i, it := range dst.items {
			if it.id == iw.ID {
				existing = it
				idx = i
				break
			}
		}

		if existing != nil {
			if iw.Nested != nil {
				mergeContainer(txn, existing.nested, iw.Nested)
			} else if iw.Deleted && !existing.deleted {
				removed := firstNonNil(existing.nested, existing.value)
				existing.deleted = true
				txn.record(Event{Path: dst.path, Kind: EventArrayDelete, Index: liveIndexBefore(dst, idx), Count: 1, Values: []any{removed}})
			}
			continue
		}

		item := &arrayItem{id: iw.ID, left: iw.Left, deleted: iw.Deleted}
		if iw.Nested != nil {
			child := makeContainer(dst.doc, childPath(dst.path, "", 0, true), iw.NestedKind)
			item.nested = child
			dst.integrate(item)
			mergeContainer(txn, child, iw.Nested)
		} else {
			item.value = iw.Leaf
			dst.integrate(item)
		}
		if !iw.Deleted {
			pos := positionOf(dst, item)
			txn.record(Event{Path: dst.path, Kind: EventArrayInsert, Index: pos, Values: []any{firstNonNil(item.nested, item.value)}})
		}
	}
}

func mergeText(txn *Transaction, dst *Text, src *nodeWire) {
	for _, iw := range src.TextItems {
		dst.doc.bumpStateVector(iw.ID)
		found := false
		for _, it := range dst.items {
			if it.id == iw.ID {
				found = true
				if iw.Deleted {
					it.deleted = true
				}
				break
			}
		}
		if found {
			continue
		}
		item := &textItem{id: iw.ID, left: iw.Left, ch: iw.Ch, deleted: iw.Deleted}
		pos := 0
		if !item.left.isZero() {
			for i, it := range dst.items {
				if it.id == item.left {
					pos = i + 1
					break
				}
			}
		}
		for pos < len(dst.items) && dst.items[pos].left == item.left && item.id.Less(dst.items[pos].id) {
			pos++
		}
		dst.items = append(dst.items, nil)
		copy(dst.items[pos+1:], dst.items[pos:])
		dst.items[pos] = item
	}
	if len(src.TextItems) > 0 {
		txn.record(Event{Path: dst.path, Kind: EventTextEdit, NewValue: dst.String()})
	}
}

func mergeContainer(txn *Transaction, dst container, src *nodeWire) {
	switch v := dst.(type) {
	case *Map:
		mergeMap(txn, v, src)
	case *Array:
		mergeArray(txn, v, src)
	case *Text:
		mergeText(txn, v, src)
	}
}

func makeContainer(doc *Doc, path []PathStep, kind int) container {
	switch kind {
	case kindArray:
		return newArray(doc, path)
	case kindText:
		return newText(doc, path)
	default:
		return newMap(doc, path)
	}
}

func liveIndexBefore(a *Array, idx int) int {
	n := 0
	for i := 0; i < idx; i++ {
		if !a.items[i].deleted {
			n++
		}
	}
	return n
}

func positionOf(a *Array, target *arrayItem) int {
	n := 0
	for _, it := range a.items {
		if it == target {
			return n
		}
		if !it.deleted {
			n++
		}
	}
	return n
}
