package database

import (
	"github.com/collabkit/collab"
)

// FieldPosition selects where a newly inserted field lands, both in the
// fields list and in every view's field_orders.
type FieldPosition struct {
	Start  bool
	End    bool
	Before string
	After  string
}

// StartPosition places the field at the head of every order.
func StartPosition() FieldPosition { return FieldPosition{Start: true} }

// EndPosition appends the field to every order.
func EndPosition() FieldPosition { return FieldPosition{End: true} }

// BeforePosition places the field immediately before id.
func BeforePosition(id string) FieldPosition { return FieldPosition{Before: id} }

// AfterPosition places the field immediately after id.
func AfterPosition(id string) FieldPosition { return FieldPosition{After: id} }

func (p FieldPosition) resolve(idx func(id string) int, length int) int {
	switch {
	case p.Start:
		return 0
	case p.After != "":
		if i := idx(p.After); i >= 0 {
			return i + 1
		}
		return length
	case p.Before != "":
		if i := idx(p.Before); i >= 0 {
			return i
		}
		return length
	default:
		return length
	}
}

// InsertField adds field at pos within the field list, and a matching
// field_orders entry at the same relative position in every view, with
// default field settings per view.
func (d *Database) InsertField(field Field, pos FieldPosition) error {
	if field.ID == "" {
		field.ID = newID()
	}
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		idx := pos.resolve(func(id string) int { return d.fields.IndexOf("id", id) }, d.fields.Len())
		if err := d.fields.InsertAt(txn.Inner(), idx, field); err != nil {
			return err
		}
		for _, viewID := range d.views.Keys() {
			view, ok := d.OpenView(viewID)
			if !ok {
				continue
			}
			orders := view.FieldOrders()
			vIdx := pos.resolve(func(id string) int { return orders.IndexOf("id", id) }, orders.Len())
			if err := orders.InsertAt(txn.Inner(), vIdx, FieldOrder{ID: field.ID}); err != nil {
				return err
			}
			view.SetFieldSettings(txn, field.ID, map[string]any{"visibility": true, "width": 150})
		}
		return nil
	})
}

// RemoveField deletes fieldID from the field list, from every view's
// field_orders, and from every row's cells.
func (d *Database) RemoveField(fieldID string) error {
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		d.fields.DeleteByID(txn.Inner(), "id", fieldID)
		for _, viewID := range d.views.Keys() {
			view, ok := d.OpenView(viewID)
			if !ok {
				continue
			}
			view.FieldOrders().DeleteByID(txn.Inner(), "id", fieldID)
		}
		if d.loader != nil {
			for _, viewID := range d.views.Keys() {
				view, ok := d.OpenView(viewID)
				if !ok {
					continue
				}
				for _, ro := range view.RowOrders().All() {
					row, err := d.loader.Load(ro.ID)
					if err != nil || row == nil {
						continue
					}
					_ = row.DeleteCell(fieldID)
					_ = d.loader.Save(row)
				}
			}
		}
		return nil
	})
}

// ReorderField moves fieldID to pos within viewID's field_orders only.
func (d *Database) ReorderField(viewID, fieldID string, pos FieldPosition) error {
	view, ok := d.OpenView(viewID)
	if !ok {
		return collab.MissingRequiredData("view:" + viewID)
	}
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		orders := view.FieldOrders()
		from := orders.IndexOf("id", fieldID)
		if from < 0 {
			return nil
		}
		to := pos.resolve(func(id string) int { return orders.IndexOf("id", id) }, orders.Len())
		orders.Move(txn.Inner(), from, to)
		return nil
	})
}
