package folder

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/broadcast"
	"github.com/collabkit/collab/internal/crdt"
)

// ViewEventKind classifies one semantic change to the view tree.
type ViewEventKind int

const (
	ViewCreated ViewEventKind = iota
	ViewUpdated
	ViewDeleted
	ViewMoved
	CurrentViewChanged
	SectionChanged
)

// ViewEvent is the semantic change emitted for one raw crdt.Event under
// the folder's views/relation/section/meta subtree.
type ViewEvent struct {
	Kind    ViewEventKind
	ViewID  string
	Section Section
}

// FolderChange is one coalesced transaction's worth of ViewEvents, tagged
// with whether the transaction originated locally.
type FolderChange struct {
	Events        []ViewEvent
	IsLocalChange bool
}

// Observe subscribes to the folder's root, translating raw CRDT deltas
// into semantic ViewEvents, publishing one FolderChange per transaction.
// Cancel stops the subscription.
func (f *Folder) Observe() (<-chan FolderChange, func()) {
	hub := broadcast.New[FolderChange](16)
	root := f.root
	cancelObserve := root.ObserveDeep(func(ce crdt.CommitEvent) {
		events := f.classifyEvents(ce.Events)
		if len(events) == 0 {
			return
		}
		hub.Publish(FolderChange{
			Events:        events,
			IsLocalChange: isLocal(f.obj, ce.Origin),
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

func (f *Folder) classifyEvents(events []crdt.Event) []ViewEvent {
	var out []ViewEvent
	for _, e := range events {
		out = append(out, f.classifyEvent(e)...)
	}
	return out
}

func (f *Folder) classifyEvent(e crdt.Event) []ViewEvent {
	switch {
	case isViewsEntryPath(e.Path):
		return classifyViewEvent(e)
	case isRelationPath(e.Path):
		return []ViewEvent{{Kind: ViewMoved}}
	case isSectionPath(e.Path):
		return []ViewEvent{{Kind: SectionChanged, Section: sectionOfPath(e.Path, e.Key)}}
	case isRootFieldPath(e.Path) && e.Key == currentViewKey:
		return []ViewEvent{{Kind: CurrentViewChanged}}
	case isCurrentViewForUserPath(e.Path):
		return []ViewEvent{{Kind: CurrentViewChanged}}
	default:
		return nil
	}
}

// isViewsEntryPath reports whether e.Path points at folder.views itself.
func isViewsEntryPath(path []crdt.PathStep) bool {
	return len(path) == 2 && path[0].Key == rootKey && path[1].Key == viewsKey
}

func isRelationPath(path []crdt.PathStep) bool {
	return len(path) >= 2 && path[0].Key == rootKey && path[1].Key == relationKey
}

func isSectionPath(path []crdt.PathStep) bool {
	return len(path) >= 2 && path[0].Key == rootKey && path[1].Key == sectionKey
}

func isRootFieldPath(path []crdt.PathStep) bool {
	return len(path) == 1 && path[0].Key == rootKey
}

func isCurrentViewForUserPath(path []crdt.PathStep) bool {
	return len(path) == 2 && path[0].Key == rootKey && path[1].Key == currentViewForUserKey
}

func classifyViewEvent(e crdt.Event) []ViewEvent {
	switch e.Kind {
	case crdt.EventMapDelete:
		return []ViewEvent{{Kind: ViewDeleted, ViewID: e.Key}}
	case crdt.EventMapSet:
		if !e.HadOld {
			return []ViewEvent{{Kind: ViewCreated, ViewID: e.Key}}
		}
		return []ViewEvent{{Kind: ViewUpdated, ViewID: e.Key}}
	default:
		return nil
	}
}

// sectionOfPath recovers the Section portion of a "name:uid" section key,
// reading it from the path's own third step when the event nests inside
// an existing section array rather than creating the entry directly.
func sectionOfPath(path []crdt.PathStep, key string) Section {
	name := key
	if len(path) >= 3 {
		name = path[2].Key
	}
	for i, c := range name {
		if c == ':' {
			return Section(name[:i])
		}
	}
	return Section(name)
}
