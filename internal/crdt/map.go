package crdt

// mapEntry is one key's register: last-writer-wins by ID, with a
// tombstone flag so a concurrent delete can be merged against a
// concurrent set deterministically instead of disappearing silently.
type mapEntry struct {
	id      ID
	value   any
	nested  container
	deleted bool
}

// Map is a CRDT register map: each key behaves as a last-write-wins cell.
// Values are either a plain leaf (nil, bool, float64, int64, string,
// []any, map[string]any — the "Any" shape the schema layer converts
// to/from JSON) or a nested Map/Array/Text.
type Map struct {
	doc     *Doc
	path    []PathStep
	entries map[string]*mapEntry
}

func newMap(doc *Doc, path []PathStep) *Map {
	return &Map{doc: doc, path: path, entries: map[string]*mapEntry{}}
}

// Get returns the leaf value at key, or ok=false if absent, deleted, or
// holding a nested container.
func (m *Map) Get(key string) (any, bool) {
	e, ok := m.entries[key]
	if !ok || e.deleted || e.nested != nil {
		return nil, false
	}
	return e.value, true
}

// GetMap returns the nested *Map at key, if any.
func (m *Map) GetMap(key string) (*Map, bool) {
	e, ok := m.entries[key]
	if !ok || e.deleted || e.nested == nil {
		return nil, false
	}
	child, ok := e.nested.(*Map)
	return child, ok
}

// GetArray returns the nested *Array at key, if any.
func (m *Map) GetArray(key string) (*Array, bool) {
	e, ok := m.entries[key]
	if !ok || e.deleted || e.nested == nil {
		return nil, false
	}
	child, ok := e.nested.(*Array)
	return child, ok
}

// GetText returns the nested *Text at key, if any.
func (m *Map) GetText(key string) (*Text, bool) {
	e, ok := m.entries[key]
	if !ok || e.deleted || e.nested == nil {
		return nil, false
	}
	child, ok := e.nested.(*Text)
	return child, ok
}

// Has reports whether key currently holds any (leaf or nested) value.
func (m *Map) Has(key string) bool {
	e, ok := m.entries[key]
	return ok && !e.deleted
}

// Keys returns the live (non-deleted) keys, in no particular order — the
// runtime makes no ordering guarantee for maps, only for arrays.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k, e := range m.entries {
		if !e.deleted {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len reports the number of live keys.
func (m *Map) Len() int {
	n := 0
	for _, e := range m.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}

// Set writes a leaf value at key within txn.
func (m *Map) Set(txn *Transaction, key string, value any) {
	old, hadOld := m.Get(key)
	id := txn.nextID()
	m.entries[key] = &mapEntry{id: id, value: value}
	txn.record(Event{Path: m.path, Kind: EventMapSet, Key: key, NewValue: value, OldValue: valueOrNil(old, hadOld), HadOld: hadOld})
}

// SetMap creates (or replaces) a nested Map at key and returns it.
func (m *Map) SetMap(txn *Transaction, key string) *Map {
	id := txn.nextID()
	child := newMap(m.doc, childPath(m.path, key, -1, false))
	m.entries[key] = &mapEntry{id: id, nested: child}
	txn.record(Event{Path: m.path, Kind: EventMapSet, Key: key, NewValue: child})
	return child
}

// SetArray creates (or replaces) a nested Array at key and returns it.
func (m *Map) SetArray(txn *Transaction, key string) *Array {
	id := txn.nextID()
	child := newArray(m.doc, childPath(m.path, key, -1, false))
	m.entries[key] = &mapEntry{id: id, nested: child}
	txn.record(Event{Path: m.path, Kind: EventMapSet, Key: key, NewValue: child})
	return child
}

// SetText creates (or replaces) a nested Text at key and returns it.
func (m *Map) SetText(txn *Transaction, key string) *Text {
	id := txn.nextID()
	child := newText(m.doc, childPath(m.path, key, -1, false))
	m.entries[key] = &mapEntry{id: id, nested: child}
	txn.record(Event{Path: m.path, Kind: EventMapSet, Key: key, NewValue: child})
	return child
}

// Delete removes key, if present.
func (m *Map) Delete(txn *Transaction, key string) {
	e, ok := m.entries[key]
	if !ok || e.deleted {
		return
	}
	old, _ := m.Get(key)
	e.deleted = true
	e.id = txn.nextID()
	txn.record(Event{Path: m.path, Kind: EventMapDelete, Key: key, OldValue: old, HadOld: true})
}

// ObserveDeep subscribes fn to every change under this map, including
// changes inside nested containers. Returns a cancel function.
func (m *Map) ObserveDeep(fn func(CommitEvent)) func() {
	return m.doc.Observe(func(ce CommitEvent) {
		filtered := filterByPrefix(ce.Events, m.path)
		if len(filtered) > 0 {
			fn(CommitEvent{Origin: ce.Origin, Events: filtered})
		}
	})
}

func valueOrNil(v any, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

func childPath(parent []PathStep, key string, index int, isArray bool) []PathStep {
	next := make([]PathStep, len(parent), len(parent)+1)
	copy(next, parent)
	return append(next, PathStep{Key: key, Index: index, IsArray: isArray})
}

func filterByPrefix(events []Event, prefix []PathStep) []Event {
	var out []Event
	for _, e := range events {
		if hasPrefix(e.Path, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func hasPrefix(path, prefix []PathStep) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i, step := range prefix {
		if path[i] != step {
			return false
		}
	}
	return true
}
