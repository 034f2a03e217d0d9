package undo

import "github.com/collabkit/collab/internal/crdt"

// applyInverse reverses a single recorded event against the container it
// came from. Events whose container no longer resolves (a deleted parent,
// say) are skipped rather than erroring the whole unit.
func applyInverse(doc *crdt.Doc, txn *crdt.Transaction, e crdt.Event) {
	node, ok := doc.Resolve(e.Path)
	if !ok {
		return
	}
	switch e.Kind {
	case crdt.EventMapSet:
		if node.Map == nil {
			return
		}
		if e.HadOld {
			node.Map.Set(txn, e.Key, e.OldValue)
		} else {
			node.Map.Delete(txn, e.Key)
		}
	case crdt.EventMapDelete:
		if node.Map == nil {
			return
		}
		node.Map.Set(txn, e.Key, e.OldValue)
	case crdt.EventArrayInsert:
		if node.Array == nil {
			return
		}
		node.Array.DeleteRange(txn, e.Index, len(e.Values))
	case crdt.EventArrayDelete:
		if node.Array == nil {
			return
		}
		for i, v := range e.Values {
			node.Array.Insert(txn, e.Index+i, v)
		}
	case crdt.EventTextEdit:
		if node.Text == nil {
			return
		}
		if e.Count > 0 {
			if s, ok := e.OldValue.(string); ok {
				node.Text.Insert(txn, e.Index, s)
			}
		} else if s, ok := e.NewValue.(string); ok {
			node.Text.Delete(txn, e.Index, len([]rune(s)))
		}
	}
}

// applyForward re-applies a recorded event in its original direction,
// used by Redo.
func applyForward(doc *crdt.Doc, txn *crdt.Transaction, e crdt.Event) {
	node, ok := doc.Resolve(e.Path)
	if !ok {
		return
	}
	switch e.Kind {
	case crdt.EventMapSet:
		if node.Map == nil {
			return
		}
		node.Map.Set(txn, e.Key, e.NewValue)
	case crdt.EventMapDelete:
		if node.Map == nil {
			return
		}
		node.Map.Delete(txn, e.Key)
	case crdt.EventArrayInsert:
		if node.Array == nil {
			return
		}
		for i, v := range e.Values {
			node.Array.Insert(txn, e.Index+i, v)
		}
	case crdt.EventArrayDelete:
		if node.Array == nil {
			return
		}
		node.Array.DeleteRange(txn, e.Index, e.Count)
	case crdt.EventTextEdit:
		if node.Text == nil {
			return
		}
		if e.Count > 0 {
			node.Text.Delete(txn, e.Index, e.Count)
		} else if s, ok := e.NewValue.(string); ok {
			node.Text.Insert(txn, e.Index, s)
		}
	}
}
