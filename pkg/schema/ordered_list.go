package schema

import "github.com/collabkit/collab/internal/crdt"

// OrderedList is the "ordered sequence with sort key" generic structure:
// a crdt.Array of maps where the array's own position is the
// authoritative order (insertions stable, deletions idempotent under
// concurrent merges). Each element may also carry a created_at field,
// recorded for read-side tie-break reporting only — it never reorders
// the list, since insertion order is the truth.
type OrderedList[T any] struct {
	arr *crdt.Array
}

// NewOrderedList adapts an existing nested array to a typed view.
func NewOrderedList[T any](arr *crdt.Array) OrderedList[T] {
	return OrderedList[T]{arr: arr}
}

// Array exposes the backing crdt.Array for callers that need raw access
// (deep observation path filtering, for instance).
func (l OrderedList[T]) Array() *crdt.Array { return l.arr }

func (l OrderedList[T]) Len() int { return l.arr.Len() }

// At decodes the element at the nth live position into T.
func (l OrderedList[T]) At(i int) (T, bool) {
	var zero T
	m, ok := l.arr.GetMap(i)
	if !ok {
		return zero, false
	}
	var out T
	if err := FillRef(ToMap(m), &out); err != nil {
		return zero, false
	}
	return out, true
}

// All decodes every live element in order.
func (l OrderedList[T]) All() []T {
	out := make([]T, 0, l.arr.Len())
	for i := 0; i < l.arr.Len(); i++ {
		if v, ok := l.At(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// InsertAt inserts v, encoded via AnyMap, at position index.
func (l OrderedList[T]) InsertAt(txn *crdt.Transaction, index int, v T) error {
	fields, err := AnyMap(v)
	if err != nil {
		return err
	}
	child := l.arr.InsertMap(txn, index)
	for k, val := range fields {
		child.Set(txn, k, val)
	}
	return nil
}

// Append inserts v at the end of the list.
func (l OrderedList[T]) Append(txn *crdt.Transaction, v T) error {
	return l.InsertAt(txn, l.arr.Len(), v)
}

// Delete removes the element at the nth live position.
func (l OrderedList[T]) Delete(txn *crdt.Transaction, index int) {
	l.arr.Delete(txn, index)
}

// Move relocates the element at from to position to.
func (l OrderedList[T]) Move(txn *crdt.Transaction, from, to int) {
	l.arr.Move(txn, from, to)
}

// IndexOf returns the position of the first element whose idKey field
// equals id, or -1 if none matches.
func (l OrderedList[T]) IndexOf(idKey, id string) int {
	for i := 0; i < l.arr.Len(); i++ {
		m, ok := l.arr.GetMap(i)
		if !ok {
			continue
		}
		if v, ok := m.Get(idKey); ok {
			if s, ok := v.(string); ok && s == id {
				return i
			}
		}
	}
	return -1
}

// DeleteByID removes the first element whose idKey field equals id.
// Reports whether an element was found and removed.
func (l OrderedList[T]) DeleteByID(txn *crdt.Transaction, idKey, id string) bool {
	idx := l.IndexOf(idKey, id)
	if idx < 0 {
		return false
	}
	l.Delete(txn, idx)
	return true
}
