package crdt

// textItem is a single character in the rope, using the same
// left-origin integration rule as Array so concurrent inserts at the
// same position converge deterministically.
type textItem struct {
	id      ID
	left    ID
	ch      rune
	deleted bool
}

// Text is a CRDT character sequence. It backs the document model's rich
// text blocks, fed by Quill-style retain/insert/delete deltas translated
// into Insert/Delete calls by document.ApplyTextDelta.
type Text struct {
	doc   *Doc
	path  []PathStep
	items []*textItem
}

func newText(doc *Doc, path []PathStep) *Text {
	return &Text{doc: doc, path: path}
}

// Len returns the number of live runes.
func (t *Text) Len() int {
	n := 0
	for _, it := range t.items {
		if !it.deleted {
			n++
		}
	}
	return n
}

// String renders the live contents.
func (t *Text) String() string {
	runes := make([]rune, 0, len(t.items))
	for _, it := range t.items {
		if !it.deleted {
			runes = append(runes, it.ch)
		}
	}
	return string(runes)
}

func (t *Text) liveIndex(n int) int {
	seen := 0
	for i, it := range t.items {
		if it.deleted {
			continue
		}
		if seen == n {
			return i
		}
		seen++
	}
	return len(t.items)
}

func (t *Text) leftOf(index int) ID {
	if index <= 0 {
		return zeroID
	}
	idx := t.liveIndex(index - 1)
	if idx >= len(t.items) {
		return zeroID
	}
	return t.items[idx].id
}

// Insert inserts s starting at the nth live rune position.
func (t *Text) Insert(txn *Transaction, index int, s string) {
	for i, ch := range []rune(s) {
		t.insertOne(txn, index+i, ch)
	}
	if len([]rune(s)) > 0 {
		txn.record(Event{Path: t.path, Kind: EventTextEdit, Index: index, NewValue: s})
	}
}

func (t *Text) insertOne(txn *Transaction, index int, ch rune) {
	id := txn.nextID()
	left := t.leftOf(index)
	item := &textItem{id: id, left: left, ch: ch}

	pos := 0
	if !left.isZero() {
		found := -1
		for i, it := range t.items {
			if it.id == left {
				found = i
				break
			}
		}
		if found == -1 {
			t.items = append(t.items, item)
			return
		}
		pos = found + 1
	}
	for pos < len(t.items) && t.items[pos].left == left && id.Less(t.items[pos].id) {
		pos++
	}
	t.items = append(t.items, nil)
	copy(t.items[pos+1:], t.items[pos:])
	t.items[pos] = item
}

// Delete removes length live runes starting at the nth live position.
// The removed text is carried as OldValue so an undo manager can
// reinsert it verbatim.
func (t *Text) Delete(txn *Transaction, index, length int) {
	if length <= 0 {
		return
	}
	var removedRunes []rune
	idx := t.liveIndex(index)
	for idx < len(t.items) && len(removedRunes) < length {
		if !t.items[idx].deleted {
			removedRunes = append(removedRunes, t.items[idx].ch)
			t.items[idx].deleted = true
			t.items[idx].id = txn.nextID()
		}
		idx++
	}
	if len(removedRunes) > 0 {
		txn.record(Event{Path: t.path, Kind: EventTextEdit, Index: index, Count: len(removedRunes), OldValue: string(removedRunes)})
	}
}

// ObserveDeep subscribes fn to every change to this text.
func (t *Text) ObserveDeep(fn func(CommitEvent)) func() {
	return t.doc.Observe(func(ce CommitEvent) {
		filtered := filterByPrefix(ce.Events, t.path)
		if len(filtered) > 0 {
			fn(CommitEvent{Origin: ce.Origin, Events: filtered})
		}
	})
}
