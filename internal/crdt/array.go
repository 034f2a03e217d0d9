package crdt

// arrayItem is one slot in the array's backing sequence. Deleted items
// are kept as tombstones because later inserts may reference them as
// their left origin; they're skipped by every public accessor.
type arrayItem struct {
	id      ID
	left    ID // zeroID means "inserted at the head"
	value   any
	nested  container
	deleted bool
}

// Array is an ordered CRDT sequence (RGA/YATA-style): every item is
// stamped with the id of its left neighbour at insertion time, so
// concurrent inserts at the same position converge to the same order on
// every replica by breaking ties on id. Deletions are tombstones and are
// idempotent.
type Array struct {
	doc   *Doc
	path  []PathStep
	items []*arrayItem
}

func newArray(doc *Doc, path []PathStep) *Array {
	return &Array{doc: doc, path: path}
}

// liveIndex returns the position of the nth live item in a.items, or
// len(a.items) if n == number of live items (append position).
func (a *Array) liveIndex(n int) int {
	seen := 0
	for i, it := range a.items {
		if it.deleted {
			continue
		}
		if seen == n {
			return i
		}
		seen++
	}
	return len(a.items)
}

// Len returns the number of live (non-tombstoned) items.
func (a *Array) Len() int {
	n := 0
	for _, it := range a.items {
		if !it.deleted {
			n++
		}
	}
	return n
}

// Get returns the leaf value at the nth live position.
func (a *Array) Get(n int) (any, bool) {
	idx := a.liveIndex(n)
	if idx >= len(a.items) {
		return nil, false
	}
	it := a.items[idx]
	if it.nested != nil {
		return nil, false
	}
	return it.value, true
}

// GetMap returns the nested *Map at the nth live position.
func (a *Array) GetMap(n int) (*Map, bool) {
	idx := a.liveIndex(n)
	if idx >= len(a.items) {
		return nil, false
	}
	m, ok := a.items[idx].nested.(*Map)
	return m, ok
}

// Values returns every live leaf value in order. Positions holding a
// nested container are returned as nil; callers that mix leaves and maps
// in one array should use GetMap directly.
func (a *Array) Values() []any {
	out := make([]any, 0, a.Len())
	for _, it := range a.items {
		if !it.deleted {
			out = append(out, it.value)
		}
	}
	return out
}

// Maps returns every live nested *Map in order, skipping leaf slots.
func (a *Array) Maps() []*Map {
	out := make([]*Map, 0, a.Len())
	for _, it := range a.items {
		if it.deleted || it.nested == nil {
			continue
		}
		if m, ok := it.nested.(*Map); ok {
			out = append(out, m)
		}
	}
	return out
}

func (a *Array) leftOf(index int) ID {
	if index <= 0 {
		return zeroID
	}
	idx := a.liveIndex(index - 1)
	if idx >= len(a.items) {
		return zeroID
	}
	return a.items[idx].id
}

// Insert places value at position index (0 == head, Len() == append).
func (a *Array) Insert(txn *Transaction, index int, value any) {
	id := txn.nextID()
	left := a.leftOf(index)
	a.integrate(&arrayItem{id: id, left: left, value: value})
	txn.record(Event{Path: a.path, Kind: EventArrayInsert, Index: index, Values: []any{value}})
}

// InsertMap places a nested Map at position index and returns it.
func (a *Array) InsertMap(txn *Transaction, index int) *Map {
	id := txn.nextID()
	left := a.leftOf(index)
	child := newMap(a.doc, childPath(a.path, "", index, true))
	a.integrate(&arrayItem{id: id, left: left, nested: child})
	txn.record(Event{Path: a.path, Kind: EventArrayInsert, Index: index, Values: []any{child}})
	return child
}

// PushMap appends a nested Map and returns it.
func (a *Array) PushMap(txn *Transaction) *Map {
	return a.InsertMap(txn, a.Len())
}

// Delete removes the item at the nth live position. The removed value is
// carried in the event's Values so an undo manager can reinsert it.
func (a *Array) Delete(txn *Transaction, n int) {
	idx := a.liveIndex(n)
	if idx >= len(a.items) {
		return
	}
	it := a.items[idx]
	removed := firstNonNil(it.nested, it.value)
	it.deleted = true
	it.id = txn.nextID()
	txn.record(Event{Path: a.path, Kind: EventArrayDelete, Index: n, Count: 1, Values: []any{removed}})
}

// DeleteRange removes count live items starting at position n.
func (a *Array) DeleteRange(txn *Transaction, n, count int) {
	for i := 0; i < count; i++ {
		a.Delete(txn, n)
	}
}

// Move relocates the item currently at from to position to, where to
// counts positions in the array as it was before the move (so Move(0, 2)
// on [a b c] yields [b a c]). It is reported as a delete+insert pair so deep observers see the same shape as an
// independent delete followed by an independent insert.
func (a *Array) Move(txn *Transaction, from, to int) {
	idx := a.liveIndex(from)
	if idx >= len(a.items) {
		return
	}
	it := a.items[idx]
	var value any
	var nested container
	if it.nested != nil {
		nested = it.nested
	} else {
		value = it.value
	}
	it.deleted = true
	it.id = txn.nextID()
	txn.record(Event{Path: a.path, Kind: EventArrayDelete, Index: from, Count: 1, Values: []any{firstNonNil(nested, value)}})

	insertAt := to
	if insertAt > from {
		insertAt--
	}
	newID := txn.nextID()
	left := a.leftOf(insertAt)
	a.integrate(&arrayItem{id: newID, left: left, value: value, nested: nested})
	txn.record(Event{Path: a.path, Kind: EventArrayInsert, Index: insertAt, Values: []any{firstNonNil(nested, value)}})
}

func firstNonNil(nested container, value any) any {
	if nested != nil {
		return nested
	}
	return value
}

// integrate performs the YATA conflict-resolution insert: the new item is
// placed directly after its left origin, then — if other items were
// concurrently inserted at the same left origin — ordered among them by
// id, highest id first, so every replica converges on the same sequence
// regardless of application order.
func (a *Array) integrate(item *arrayItem) {
	pos := 0
	if !item.left.isZero() {
		found := -1
		for i, it := range a.items {
			if it.id == item.left {
				found = i
				break
			}
		}
		if found == -1 {
			// Left origin not known locally yet: fall back to the end,
			// which only happens when updates are applied out of order.
			a.items = append(a.items, item)
			return
		}
		pos = found + 1
	}
	for pos < len(a.items) && a.items[pos].left == item.left && item.id.Less(a.items[pos].id) {
		pos++
	}
	a.items = append(a.items, nil)
	copy(a.items[pos+1:], a.items[pos:])
	a.items[pos] = item
}

// ObserveDeep subscribes fn to every change under this array.
func (a *Array) ObserveDeep(fn func(CommitEvent)) func() {
	return a.doc.Observe(func(ce CommitEvent) {
		filtered := filterByPrefix(ce.Events, a.path)
		if len(filtered) > 0 {
			fn(CommitEvent{Origin: ce.Origin, Events: filtered})
		}
	})
}
