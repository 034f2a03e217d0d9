package crdt

// Origin tags a write transaction so that plugins and observers can tell
// local edits from remote ones. The runtime treats it as an opaque
// comparable value; collab.Object defines the concrete shape it stamps
// onto every local write.
type Origin any

// Transaction carries the origin for one write and accumulates the
// Events produced by every mutation performed through it. All mutations
// made through the same Transaction commit atomically: observers see them
// coalesced into a single CommitEvent.
type Transaction struct {
	doc    *Doc
	origin Origin
	events []Event
}

// Origin returns the origin this transaction was opened with.
func (t *Transaction) Origin() Origin {
	return t.origin
}

func (t *Transaction) nextID() ID {
	t.doc.clock++
	id := ID{Client: t.doc.clientID, Clock: t.doc.clock}
	t.doc.bumpStateVector(id)
	return id
}

func (t *Transaction) record(e Event) {
	t.events = append(t.events, e)
}
