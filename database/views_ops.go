package database

import (
	"fmt"

	"github.com/collabkit/collab"
)

// CreateLinkedView adds a new, independent view onto the same field and
// row set: its own layout, filters, sorts, groups and field settings, but
// field_orders/row_orders seeded from an identity copy of the primary
// view's so every existing field and row starts visible in the new view
// too.
func (d *Database) CreateLinkedView(clock collab.Clock, viewID, name string, layout Layout) (*View, error) {
	if viewID == "" {
		viewID = newID()
	}
	primary, ok := d.PrimaryView()
	if !ok {
		return nil, fmt.Errorf("%w: no primary view", collab.ErrMissingRequiredData)
	}
	now := clock.NowMillis()
	err := d.obj.Transact(func(txn *collab.WriteTxn) error {
		vm := d.views.SetMap(txn.Inner(), viewID)
		initView(txn, vm, DatabaseView{
			ID: viewID, DatabaseID: d.DatabaseID(), Name: name,
			Layout: string(layout), CreatedAt: now, ModifiedAt: now,
		})
		view := &View{m: vm, db: d}
		if settings := DefaultLayoutSettings(layout); len(settings) > 0 {
			view.SetLayoutSettings(txn, layout, settings)
		}
		for _, fo := range primary.FieldOrders().All() {
			if err := view.FieldOrders().InsertAt(txn.Inner(), view.FieldOrders().Len(), fo); err != nil {
				return err
			}
		}
		for _, ro := range primary.RowOrders().All() {
			if err := view.RowOrders().InsertAt(txn.Inner(), view.RowOrders().Len(), ro); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	v, _ := d.OpenView(viewID)
	return v, nil
}

// DuplicateLinkedView clones srcViewID into a brand new view id with
// independent filters/sorts/groups/field settings — mutating the copy
// never touches the source (scenario: deep-copy independence).
func (d *Database) DuplicateLinkedView(clock collab.Clock, srcViewID string) (*View, error) {
	src, ok := d.OpenView(srcViewID)
	if !ok {
		return nil, fmt.Errorf("%w: view %s", collab.ErrMissingRequiredData, srcViewID)
	}
	scalars := src.Scalars()
	newViewID := newID()
	now := clock.NowMillis()
	err := d.obj.Transact(func(txn *collab.WriteTxn) error {
		vm := d.views.SetMap(txn.Inner(), newViewID)
		initView(txn, vm, DatabaseView{
			ID: newViewID, DatabaseID: scalars.DatabaseID, Name: scalars.Name + " (copy)",
			Layout: scalars.Layout, CreatedAt: now, ModifiedAt: now,
		})
		dst := &View{m: vm, db: d}
		for _, f := range src.Filters().All() {
			if err := dst.Filters().InsertAt(txn.Inner(), dst.Filters().Len(), f); err != nil {
				return err
			}
		}
		for _, s := range src.Sorts().All() {
			if err := dst.Sorts().InsertAt(txn.Inner(), dst.Sorts().Len(), s); err != nil {
				return err
			}
		}
		for _, g := range src.Groups().All() {
			if err := dst.Groups().InsertAt(txn.Inner(), dst.Groups().Len(), g); err != nil {
				return err
			}
		}
		for _, fo := range src.FieldOrders().All() {
			if err := dst.FieldOrders().InsertAt(txn.Inner(), dst.FieldOrders().Len(), fo); err != nil {
				return err
			}
			if settings, ok := src.FieldSettings(fo.ID); ok {
				dst.SetFieldSettings(txn, fo.ID, settings)
			}
		}
		for _, ro := range src.RowOrders().All() {
			if err := dst.RowOrders().InsertAt(txn.Inner(), dst.RowOrders().Len(), ro); err != nil {
				return err
			}
		}
		if ls, ok := src.LayoutSettings(Layout(scalars.Layout)); ok {
			dst.SetLayoutSettings(txn, Layout(scalars.Layout), ls)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	v, _ := d.OpenView(newViewID)
	return v, nil
}

// DeleteView removes viewID, refusing to delete the database's inline
// primary view while any other view still exists.
func (d *Database) DeleteView(viewID string) error {
	if viewID == d.InlineViewID() && len(d.views.Keys()) > 1 {
		return collab.ErrCannotDeletePrimary
	}
	if _, ok := d.OpenView(viewID); !ok {
		return fmt.Errorf("%w: view %s", collab.ErrMissingRequiredData, viewID)
	}
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		d.views.Delete(txn.Inner(), viewID)
		return nil
	})
}
