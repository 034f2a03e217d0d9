package document

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/broadcast"
	"github.com/collabkit/collab/internal/crdt"
)

// BlockEventKind classifies one semantic change to the block tree.
type BlockEventKind int

const (
	BlockCreated BlockEventKind = iota
	BlockUpdated
	BlockDeleted
	BlockMoved
	TextChanged
)

// BlockEvent is the semantic change emitted for one raw crdt.Event under
// the document's blocks/meta subtree.
type BlockEvent struct {
	Kind    BlockEventKind
	BlockID string
	// ExternalID is set for TextChanged events.
	ExternalID string
}

// DocumentChange is one coalesced transaction's worth of BlockEvents,
// tagged with whether the transaction originated locally.
type DocumentChange struct {
	Events        []BlockEvent
	IsLocalChange bool
}

// Observe subscribes to the document's root, translating raw CRDT deltas
// into semantic BlockEvents, and publishes one DocumentChange per
// transaction to the returned broadcast channel. Cancel stops the
// subscription.
func (d *Document) Observe() (<-chan DocumentChange, func()) {
	hub := broadcast.New[DocumentChange](16)
	cancelObserve := d.root.ObserveDeep(func(ce crdt.CommitEvent) {
		events := classifyEvents(ce.Events)
		if len(events) == 0 {
			return
		}
		hub.Publish(DocumentChange{
			Events:        events,
			IsLocalChange: isLocal(d.obj, ce.Origin),
		})
	})
	sub, unsub := hub.Subscribe()
	cancel := func() {
		unsub()
		cancelObserve()
	}
	return sub, cancel
}

func isLocal(obj *collab.Object, origin crdt.Origin) bool {
	o, ok := origin.(collab.Origin)
	return ok && o == obj.Origin()
}

func classifyEvents(events []crdt.Event) []BlockEvent {
	var out []BlockEvent
	for _, e := range events {
		out = append(out, classifyEvent(e)...)
	}
	return out
}

func classifyEvent(e crdt.Event) []BlockEvent {
	switch {
	case isTextPath(e.Path):
		return []BlockEvent{{Kind: TextChanged, ExternalID: e.Key}}
	case isBlockEntryPath(e.Path):
		return classifyBlockEvent(e)
	case isChildrenMapPath(e.Path):
		return []BlockEvent{{Kind: BlockMoved}}
	default:
		return nil
	}
}

// isBlockEntryPath reports whether e.Path points at document.blocks
// itself (two hops: {Key: "document"}, {Key: "blocks"}).
func isBlockEntryPath(path []crdt.PathStep) bool {
	return len(path) == 2 && path[0].Key == rootKey && path[1].Key == blocksKey
}

func isTextPath(path []crdt.PathStep) bool {
	return len(path) == 3 && path[0].Key == rootKey && path[1].Key == metaKey && path[2].Key == textMapKey
}

// isChildrenMapPath reports whether e.Path points into document.meta.children_map
// — an insert or delete on one parent's children array, the signal a
// block reorder or reparent (InsertBlock/DeleteBlock/MoveBlock) produces.
func isChildrenMapPath(path []crdt.PathStep) bool {
	return len(path) >= 3 && path[0].Key == rootKey && path[1].Key == metaKey && path[2].Key == childrenMapKey
}

func classifyBlockEvent(e crdt.Event) []BlockEvent {
	switch e.Kind {
	case crdt.EventMapDelete:
		return []BlockEvent{{Kind: BlockDeleted, BlockID: e.Key}}
	case crdt.EventMapSet:
		if !e.HadOld {
			return []BlockEvent{{Kind: BlockCreated, BlockID: e.Key}}
		}
		return []BlockEvent{{Kind: BlockUpdated, BlockID: e.Key}}
	default:
		return nil
	}
}
