package crdt

// Node is the container a Path resolves to: exactly one field is set.
type Node struct {
	Map   *Map
	Array *Array
	Text  *Text
}

// Resolve walks path from the document root and returns the container it
// addresses. Used by consumers that only see a Path out of an Event (an
// undo manager, chiefly) and need to apply a follow-up mutation to the
// exact container the event came from.
func (d *Doc) Resolve(path []PathStep) (Node, bool) {
	cur := Node{Map: d.root}
	for _, step := range path {
		var next Node
		if step.IsArray {
			if cur.Array == nil {
				return Node{}, false
			}
			m, ok := cur.Array.GetMap(step.Index)
			if !ok {
				return Node{}, false
			}
			next = Node{Map: m}
		} else {
			if cur.Map == nil {
				return Node{}, false
			}
			if m, ok := cur.Map.GetMap(step.Key); ok {
				next = Node{Map: m}
			} else if a, ok := cur.Map.GetArray(step.Key); ok {
				next = Node{Array: a}
			} else if t, ok := cur.Map.GetText(step.Key); ok {
				next = Node{Text: t}
			} else {
				return Node{}, false
			}
		}
		cur = next
	}
	return cur, true
}
