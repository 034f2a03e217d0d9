package database

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/internal/idgen"
	"github.com/collabkit/collab/pkg/schema"
)

const (
	rowRootKey    = "data"
	rowMetaKey    = "meta"
	rowCommentKey = "comment"
	cellsKey      = "cells"
)

// Cell is one field's value on a row. Data's shape depends on FieldType;
// the extra keys a specific field type stores live alongside Data in the
// same map (tagged-variant convention, §3.2) — callers that need a typed
// view go through cellparse.go's parsers.
type Cell struct {
	FieldType int            `json:"field_type"`
	Data      any            `json:"data"`
	Extra     map[string]any `json:"-"`
}

// RowData is the plain-data snapshot of a row's data map, cells included.
type RowData struct {
	ID           string
	DatabaseID   string
	Height       int
	Visibility   int
	CreatedAt    int64
	LastModified int64
	CreatedBy    int64
	Cells        map[string]Cell
}

// Row is the typed body over a Row Object's root map.
type Row struct {
	obj     *collab.Object
	data    *crdt.Map
	meta    *schema.MapExt
	comment *crdt.Map
}

// newRowObject constructs a fresh Row Object and its typed body in one
// transaction. The document/icon/cover ids are not stored here; the
// DocumentID/IconID/CoverID methods derive them from the row id.
func newRowObject(clock collab.Clock, params CreateRowParams) (*Row, error) {
	clientID := params.ClientID
	if clientID == 0 {
		clientID = 1
	}
	obj := collab.New(params.Origin, params.ID, clientID, collab.Options{Clock: clock})
	r := &Row{obj: obj}
	err := obj.Transact(func(txn *collab.WriteTxn) error {
		data := obj.Root().SetMap(txn.Inner(), rowRootKey)
		meta := obj.Root().SetMap(txn.Inner(), rowMetaKey)
		comment := obj.Root().SetMap(txn.Inner(), rowCommentKey)

		data.Set(txn.Inner(), "id", params.ID)
		data.Set(txn.Inner(), "database_id", params.DatabaseID)
		data.Set(txn.Inner(), "height", params.Height)
		data.Set(txn.Inner(), "visibility", params.Visibility)
		data.Set(txn.Inner(), "created_at", params.CreatedAt)
		data.Set(txn.Inner(), "last_modified", params.CreatedAt)
		data.Set(txn.Inner(), "created_by", params.CreatedBy)
		cells := data.SetMap(txn.Inner(), cellsKey)
		for fieldID, cell := range params.Cells {
			setCell(txn, cells, fieldID, cell)
		}

		r.data = data
		r.meta = ref(meta)
		r.comment = comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// OpenRow adapts an already-populated Object as a Row.
func OpenRow(obj *collab.Object) (*Row, error) {
	data, ok := obj.Root().GetMap(rowRootKey)
	if !ok {
		return nil, collab.MissingRequiredData("row.data")
	}
	meta, ok := obj.Root().GetMap(rowMetaKey)
	if !ok {
		return nil, collab.MissingRequiredData("row.meta")
	}
	comment, ok := obj.Root().GetMap(rowCommentKey)
	if !ok {
		return nil, collab.MissingRequiredData("row.comment")
	}
	return &Row{obj: obj, data: data, meta: ref(meta), comment: comment}, nil
}

// Object exposes the row's underlying Object, e.g. for EncodeFull.
func (r *Row) Object() *collab.Object { return r.obj }

// ID returns the row's own id.
func (r *Row) ID() string { return schema.Ext(r.data).GetString("id") }

// DocumentID, IconID, CoverID and IsEmptyMarkerID are derived, never
// stored, so duplication/import remapping never drifts from the id they
// were derived from.
func (r *Row) DocumentID() (string, error) { return idgen.Derive(r.ID(), "document_id") }
func (r *Row) IconID() (string, error)      { return idgen.Derive(r.ID(), "icon_id") }
func (r *Row) CoverID() (string, error)     { return idgen.Derive(r.ID(), "cover_id") }
func (r *Row) IsEmptyMarkerID() (string, error) {
	return idgen.Derive(r.ID(), "is_document_empty")
}

// Data returns the row's plain-data snapshot, including cells.
func (r *Row) Data() RowData {
	e := schema.Ext(r.data)
	rd := RowData{
		ID:           e.GetString("id"),
		DatabaseID:   e.GetString("database_id"),
		Height:       int(e.GetInt64("height")),
		Visibility:   int(e.GetInt64("visibility")),
		CreatedAt:    e.GetInt64("created_at"),
		LastModified: e.GetInt64("last_modified"),
		CreatedBy:    e.GetInt64("created_by"),
		Cells:        map[string]Cell{},
	}
	if cells, ok := r.data.GetMap(cellsKey); ok {
		for _, fieldID := range cells.Keys() {
			if cm, ok := cells.GetMap(fieldID); ok {
				rd.Cells[fieldID] = cellFromMap(cm)
			}
		}
	}
	return rd
}

func cellFromMap(m *crdt.Map) Cell {
	e := schema.Ext(m)
	c := Cell{FieldType: int(e.GetInt64("field_type")), Extra: map[string]any{}}
	if v, ok := m.Get("data"); ok {
		c.Data = v
	}
	for _, k := range m.Keys() {
		if k == "field_type" || k == "data" {
			continue
		}
		if v, ok := m.Get(k); ok {
			c.Extra[k] = v
		}
	}
	return c
}

func setCell(txn *collab.WriteTxn, cells *crdt.Map, fieldID string, cell Cell) {
	m := cells.SetMap(txn.Inner(), fieldID)
	m.Set(txn.Inner(), "field_type", cell.FieldType)
	m.Set(txn.Inner(), "data", cell.Data)
	for k, v := range cell.Extra {
		m.Set(txn.Inner(), k, v)
	}
}

// SetCell creates or wholesale-replaces the cell at fieldID and bumps
// last_modified.
func (r *Row) SetCell(fieldID string, cell Cell, clock collab.Clock) error {
	return r.obj.Transact(func(txn *collab.WriteTxn) error {
		cells, ok := r.data.GetMap(cellsKey)
		if !ok {
			cells = r.data.SetMap(txn.Inner(), cellsKey)
		}
		setCell(txn, cells, fieldID, cell)
		r.data.Set(txn.Inner(), "last_modified", clock.NowMillis())
		return nil
	})
}

// GetCell reads the cell at fieldID, if present.
func (r *Row) GetCell(fieldID string) (Cell, bool) {
	cells, ok := r.data.GetMap(cellsKey)
	if !ok {
		return Cell{}, false
	}
	cm, ok := cells.GetMap(fieldID)
	if !ok {
		return Cell{}, false
	}
	return cellFromMap(cm), true
}

// DeleteCell removes fieldID's cell, if present.
func (r *Row) DeleteCell(fieldID string) error {
	return r.obj.Transact(func(txn *collab.WriteTxn) error {
		if cells, ok := r.data.GetMap(cellsKey); ok {
			cells.Delete(txn.Inner(), fieldID)
		}
		return nil
	})
}

// SetMeta merges fields into the row's meta map (icon_id, cover_id,
// attachment_count, row_reactions, is_document_empty).
func (r *Row) SetMeta(fields map[string]any) error {
	return r.obj.Transact(func(txn *collab.WriteTxn) error {
		for k, v := range fields {
			r.meta.Set(txn.Inner(), k, v)
		}
		return nil
	})
}

// Meta returns the row's meta leaf values as a plain map.
func (r *Row) Meta() map[string]any { return schema.ToMap(r.meta.Map) }
