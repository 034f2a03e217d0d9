// Package crdt is the CRDT runtime adapter: a small Yjs-shaped document
// model (maps, arrays, text, transactions with origins, state vectors and
// update encoding) that the schema layer and body packages build typed
// views on top of. No Yjs-compatible CRDT runtime exists among the
// retrieved example repositories, so this package is built directly on the
// standard library; only its wire encoding (internal/crdt/encode.go) is
// delegated to a third-party codec (see DESIGN.md).
package crdt

import "fmt"

// ID identifies a single CRDT operation: the clock of the client that
// issued it. Map entries, array items and text runs are all stamped with
// an ID so that concurrent edits have a deterministic merge order —
// last-writer-wins by (Clock, Client) for registers, and a stable
// insertion order for sequences: array and text inserts are ordered by
// left origin, with ties between concurrent inserts at the same origin
// broken by inserter id.
type ID struct {
	Client uint64
	Clock  uint64
}

// Less orders IDs the way the runtime breaks ties: higher clock wins: ties
// on clock are broken by client id. Used both for map LWW resolution and
// for ordering concurrent array inserts that share a left origin.
func (a ID) Less(b ID) bool {
	if a.Clock != b.Clock {
		return a.Clock < b.Clock
	}
	return a.Client < b.Client
}

func (a ID) String() string {
	return fmt.Sprintf("%d@%d", a.Clock, a.Client)
}

// zeroID is never assigned to a real operation (clocks start at 1), so it
// safely represents "no id" / "insert at head" without a pointer.
var zeroID = ID{}

func (a ID) isZero() bool { return a == zeroID }
