package database

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/pkg/schema"
)

const (
	layoutSettingsKey = "layout_settings"
	filtersKey        = "filters"
	sortsKey          = "sorts"
	groupsKey         = "groups"
	fieldSettingsKey  = "field_settings"
	fieldOrdersKey    = "field_orders"
	rowOrdersKey      = "row_orders"
)

// FieldOrder is one entry of a view's field_orders list.
type FieldOrder struct {
	ID string `json:"id"`
}

// RowOrder is one entry of a view's row_orders list.
type RowOrder struct {
	ID     string `json:"id"`
	Height int    `json:"height,omitempty"`
}

// DatabaseView is the plain-data shape of a view's scalar fields.
type DatabaseView struct {
	ID         string `json:"id"`
	DatabaseID string `json:"database_id"`
	Name       string `json:"name"`
	Layout     string `json:"layout"`
	CreatedAt  int64  `json:"created_at"`
	ModifiedAt int64  `json:"modified_at"`
	IsInline   bool   `json:"is_inline,omitempty"`
	Embedded   bool   `json:"embedded,omitempty"`
}

// View is the typed accessor over one entry of database.views.
type View struct {
	m  *crdt.Map
	db *Database
}

func initView(txn *collab.WriteTxn, m *crdt.Map, v DatabaseView) {
	setViewScalars(txn, m, v)
	m.SetMap(txn.Inner(), layoutSettingsKey)
	m.SetArray(txn.Inner(), filtersKey)
	m.SetArray(txn.Inner(), sortsKey)
	m.SetArray(txn.Inner(), groupsKey)
	m.SetMap(txn.Inner(), fieldSettingsKey)
	m.SetArray(txn.Inner(), fieldOrdersKey)
	m.SetArray(txn.Inner(), rowOrdersKey)
}

func setViewScalars(txn *collab.WriteTxn, m *crdt.Map, v DatabaseView) {
	m.Set(txn.Inner(), "id", v.ID)
	m.Set(txn.Inner(), "database_id", v.DatabaseID)
	m.Set(txn.Inner(), "name", v.Name)
	m.Set(txn.Inner(), "layout", v.Layout)
	m.Set(txn.Inner(), "created_at", v.CreatedAt)
	m.Set(txn.Inner(), "modified_at", v.ModifiedAt)
	m.Set(txn.Inner(), "is_inline", v.IsInline)
	m.Set(txn.Inner(), "embedded", v.Embedded)
}

// Scalars returns the view's plain-data fields.
func (v *View) Scalars() DatabaseView {
	e := schema.Ext(v.m)
	return DatabaseView{
		ID:         e.GetString("id"),
		DatabaseID: e.GetString("database_id"),
		Name:       e.GetString("name"),
		Layout:     e.GetString("layout"),
		CreatedAt:  e.GetInt64("created_at"),
		ModifiedAt: e.GetInt64("modified_at"),
		IsInline:   e.GetBool("is_inline"),
		Embedded:   e.GetBool("embedded"),
	}
}

func (v *View) FieldOrders() schema.OrderedList[FieldOrder] {
	arr, _ := v.m.GetArray(fieldOrdersKey)
	return schema.NewOrderedList[FieldOrder](arr)
}

func (v *View) RowOrders() schema.OrderedList[RowOrder] {
	arr, _ := v.m.GetArray(rowOrdersKey)
	return schema.NewOrderedList[RowOrder](arr)
}

func (v *View) Filters() schema.OrderedList[map[string]any] {
	arr, _ := v.m.GetArray(filtersKey)
	return schema.NewOrderedList[map[string]any](arr)
}

func (v *View) Sorts() schema.OrderedList[map[string]any] {
	arr, _ := v.m.GetArray(sortsKey)
	return schema.NewOrderedList[map[string]any](arr)
}

func (v *View) Groups() schema.OrderedList[map[string]any] {
	arr, _ := v.m.GetArray(groupsKey)
	return schema.NewOrderedList[map[string]any](arr)
}

// FieldSettings returns field_id's free-form settings map, if present.
func (v *View) FieldSettings(fieldID string) (map[string]any, bool) {
	settings, ok := v.m.GetMap(fieldSettingsKey)
	if !ok {
		return nil, false
	}
	m, ok := settings.GetMap(fieldID)
	if !ok {
		return nil, false
	}
	return schema.ToMap(m), true
}

// SetFieldSettings replaces field_id's settings wholesale.
func (v *View) SetFieldSettings(txn *collab.WriteTxn, fieldID string, settings map[string]any) {
	fs, ok := v.m.GetMap(fieldSettingsKey)
	if !ok {
		fs = v.m.SetMap(txn.Inner(), fieldSettingsKey)
	}
	entry := fs.SetMap(txn.Inner(), fieldID)
	for k, val := range settings {
		entry.Set(txn.Inner(), k, val)
	}
}

func (v *View) LayoutSettings(layout Layout) (map[string]any, bool) {
	ls, ok := v.m.GetMap(layoutSettingsKey)
	if !ok {
		return nil, false
	}
	m, ok := ls.GetMap(string(layout))
	if !ok {
		return nil, false
	}
	return schema.ToMap(m), true
}

func (v *View) SetLayoutSettings(txn *collab.WriteTxn, layout Layout, settings map[string]any) {
	ls, ok := v.m.GetMap(layoutSettingsKey)
	if !ok {
		ls = v.m.SetMap(txn.Inner(), layoutSettingsKey)
	}
	entry := ls.SetMap(txn.Inner(), string(layout))
	for k, val := range settings {
		entry.Set(txn.Inner(), k, val)
	}
}

// touch bumps modified_at to now without changing any other field.
func (v *View) touch(txn *collab.WriteTxn, clock collab.Clock) {
	v.m.Set(txn.Inner(), "modified_at", clock.NowMillis())
}
