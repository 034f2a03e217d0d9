package crdt

// rollback undoes every event recorded on txn, in reverse order, so
// that a transaction whose closure returns an error never leaves a
// partial mutation behind. Mirrors pkg/undo's inversion logic but lives
// here since events are applied directly to the container as each
// mutator runs, not buffered until commit.
func rollback(d *Doc, txn *Transaction) {
	undo := &Transaction{doc: d, origin: txn.origin}
	for i := len(txn.events) - 1; i >= 0; i-- {
		invertEvent(d, undo, txn.events[i])
	}
}

func invertEvent(d *Doc, txn *Transaction, e Event) {
	node, ok := d.Resolve(e.Path)
	if !ok {
		return
	}
	switch e.Kind {
	case EventMapSet:
		if node.Map == nil {
			return
		}
		if e.HadOld {
			node.Map.Set(txn, e.Key, e.OldValue)
		} else {
			node.Map.Delete(txn, e.Key)
		}
	case EventMapDelete:
		if node.Map == nil {
			return
		}
		node.Map.Set(txn, e.Key, e.OldValue)
	case EventArrayInsert:
		if node.Array == nil {
			return
		}
		node.Array.DeleteRange(txn, e.Index, len(e.Values))
	case EventArrayDelete:
		if node.Array == nil {
			return
		}
		for i, v := range e.Values {
			node.Array.Insert(txn, e.Index+i, v)
		}
	case EventTextEdit:
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
