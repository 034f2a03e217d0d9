package database

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/broadcast"
	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/pkg/schema"
)

// DatabaseEventKind classifies one semantic change under a database's
// fields/views subtree.
type DatabaseEventKind int

const (
	FieldListChanged DatabaseEventKind = iota
	FieldOrdersChanged
	RowOrdersChanged
	FiltersChanged
	SortsChanged
	GroupsChanged
	ViewSettingsChanged
	ViewCreated
	ViewDeleted
	ViewUpdated
)

// IndexedRow is one row_orders insertion, carrying the position it landed
// at alongside the row it points to.
type IndexedRow struct {
	Index int
	Row   RowOrder
}

// IndexedField is one field_orders insertion, carrying the position it
// landed at alongside the field it points to.
type IndexedField struct {
	Index int
	Field FieldOrder
}

// DatabaseEvent is the semantic change emitted for one raw crdt.Event
// (or, for order-list changes, one coalesced insert/delete pair) under
// the database's fields/views subtree.
type DatabaseEvent struct {
	Kind           DatabaseEventKind
	ViewID         string
	InsertedRows   []IndexedRow
	DeletedRows    []int
	InsertedFields []IndexedField
	DeletedFields  []int
}

// DatabaseChange is one coalesced transaction's worth of DatabaseEvents,
// tagged with whether the transaction originated locally.
type DatabaseChange struct {
	Events        []DatabaseEvent
	IsLocalChange bool
}

// Observe subscribes to the database's root, translating raw CRDT deltas
// into semantic DatabaseEvents, publishing one DatabaseChange per
// transaction. Cancel stops the subscription.
func (d *Database) Observe() (<-chan DatabaseChange, func()) {
	hub := broadcast.New[DatabaseChange](16)
	cancelObserve := d.root.ObserveDeep(func(ce crdt.CommitEvent) {
		events := classifyDatabaseEvents(ce.Events)
		if len(events) == 0 {
			return
		}
		hub.Publish(DatabaseChange{
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

func classifyDatabaseEvents(events []crdt.Event) []DatabaseEvent {
	var out []DatabaseEvent
	// order tracks the first index each (Kind, ViewID) pair lands at in
	// out, so a move's delete+insert pair coalesces into the single
	// event its transaction is supposed to produce instead of two.
	order := map[[2]string]int{}
	for _, e := range events {
		ev, ok := classifyDatabaseEvent(e)
		if !ok {
			continue
		}
		if ev.Kind != RowOrdersChanged && ev.Kind != FieldOrdersChanged {
			out = append(out, ev)
			continue
		}
		key := [2]string{kindKey(ev.Kind), ev.ViewID}
		if i, seen := order[key]; seen {
			out[i] = mergeOrderEvents(out[i], ev)
			continue
		}
		order[key] = len(out)
		out = append(out, ev)
	}
	return out
}

func kindKey(k DatabaseEventKind) string {
	if k == RowOrdersChanged {
		return "row"
	}
	return "field"
}

// mergeOrderEvents folds b's inserts/deletes into a, so a move's delete
// half and insert half (raised as two separate crdt.Events within one
// transaction) surface as a single DatabaseEvent carrying both sides.
func mergeOrderEvents(a, b DatabaseEvent) DatabaseEvent {
	a.InsertedRows = append(a.InsertedRows, b.InsertedRows...)
	a.DeletedRows = append(a.DeletedRows, b.DeletedRows...)
	a.InsertedFields = append(a.InsertedFields, b.InsertedFields...)
	a.DeletedFields = append(a.DeletedFields, b.DeletedFields...)
	return a
}

func classifyDatabaseEvent(e crdt.Event) (DatabaseEvent, bool) {
	path := e.Path
	switch {
	case isFieldsPath(path):
		return DatabaseEvent{Kind: FieldListChanged}, true
	case isViewsEntryPath(path):
		if e.Kind == crdt.EventMapDelete {
			return DatabaseEvent{Kind: ViewDeleted, ViewID: e.Key}, true
		}
		if !e.HadOld {
			return DatabaseEvent{Kind: ViewCreated, ViewID: e.Key}, true
		}
		return DatabaseEvent{Kind: ViewUpdated, ViewID: e.Key}, true
	case isViewScalarPath(path):
		if isScaffoldKey(e.Key) {
			return DatabaseEvent{}, false
		}
		return DatabaseEvent{Kind: ViewUpdated, ViewID: path[2].Key}, true
	case isViewSubPath(path, rowOrdersKey):
		return rowOrderDelta(e, path[2].Key), true
	case isViewSubPath(path, fieldOrdersKey):
		return fieldOrderDelta(e, path[2].Key), true
	case isViewSubPath(path, filtersKey):
		return DatabaseEvent{Kind: FiltersChanged, ViewID: path[2].Key}, true
	case isViewSubPath(path, sortsKey):
		return DatabaseEvent{Kind: SortsChanged, ViewID: path[2].Key}, true
	case isViewSubPath(path, groupsKey):
		return DatabaseEvent{Kind: GroupsChanged, ViewID: path[2].Key}, true
	case isViewSettingsPath(path):
		return DatabaseEvent{Kind: ViewSettingsChanged, ViewID: path[2].Key}, true
	default:
		return DatabaseEvent{}, false
	}
}

func isFieldsPath(path []crdt.PathStep) bool {
	return len(path) == 2 && path[0].Key == rootKey && path[1].Key == fieldsKey
}

func isViewsEntryPath(path []crdt.PathStep) bool {
	return len(path) == 2 && path[0].Key == rootKey && path[1].Key == viewsKey
}

// isViewScalarPath matches a Set directly on one view's own map, either a
// real scalar edit (name, layout, modified_at) or the scaffolding Sets
// initView performs for its nested collections — isScaffoldKey tells them
// apart.
func isViewScalarPath(path []crdt.PathStep) bool {
	return len(path) == 3 && path[0].Key == rootKey && path[1].Key == viewsKey
}

func isScaffoldKey(key string) bool {
	switch key {
	case layoutSettingsKey, filtersKey, sortsKey, groupsKey, fieldSettingsKey, fieldOrdersKey, rowOrdersKey:
		return true
	default:
		return false
	}
}

func isViewSubPath(path []crdt.PathStep, sub string) bool {
	return len(path) == 4 && path[0].Key == rootKey && path[1].Key == viewsKey && path[3].Key == sub
}

func isViewSettingsPath(path []crdt.PathStep) bool {
	if len(path) < 4 || path[0].Key != rootKey || path[1].Key != viewsKey {
		return false
	}
	return path[3].Key == fieldSettingsKey || path[3].Key == layoutSettingsKey
}

func rowOrderDelta(e crdt.Event, viewID string) DatabaseEvent {
	ev := DatabaseEvent{Kind: RowOrdersChanged, ViewID: viewID}
	switch e.Kind {
	case crdt.EventArrayInsert:
		if m, ok := asRowMap(e.Values); ok {
			ev.InsertedRows = []IndexedRow{{Index: e.Index, Row: m}}
		}
	case crdt.EventArrayDelete:
		for i := 0; i < e.Count; i++ {
			ev.DeletedRows = append(ev.DeletedRows, e.Index+i)
		}
	}
	return ev
}

func fieldOrderDelta(e crdt.Event, viewID string) DatabaseEvent {
	ev := DatabaseEvent{Kind: FieldOrdersChanged, ViewID: viewID}
	switch e.Kind {
	case crdt.EventArrayInsert:
		if f, ok := asFieldOrderMap(e.Values); ok {
			ev.InsertedFields = []IndexedField{{Index: e.Index, Field: f}}
		}
	case crdt.EventArrayDelete:
		for i := 0; i < e.Count; i++ {
			ev.DeletedFields = append(ev.DeletedFields, e.Index+i)
		}
	}
	return ev
}

func asRowMap(values []any) (RowOrder, bool) {
	if len(values) == 0 {
		return RowOrder{}, false
	}
	m, ok := values[0].(*crdt.Map)
	if !ok {
		return RowOrder{}, false
	}
	e := schema.Ext(m)
	return RowOrder{ID: e.GetString("id"), Height: int(e.GetInt64("height"))}, true
}

func asFieldOrderMap(values []any) (FieldOrder, bool) {
	if len(values) == 0 {
		return FieldOrder{}, false
	}
	m, ok := values[0].(*crdt.Map)
	if !ok {
		return FieldOrder{}, false
	}
	return FieldOrder{ID: schema.Ext(m).GetString("id")}, true
}
