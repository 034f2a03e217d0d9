package database

import "github.com/collabkit/collab"

// ViewData is one view's full configuration, independent of any live
// *crdt.Map, suitable for re-creating the view elsewhere.
type ViewData struct {
	Scalars        DatabaseView
	FieldOrders    []FieldOrder
	RowOrders      []RowOrder
	Filters        []map[string]any
	Sorts          []map[string]any
	Groups         []map[string]any
	FieldSettings  map[string]map[string]any
	LayoutSettings map[string]map[string]any
}

// RowSnapshot is a row's full, loader-independent snapshot.
type RowSnapshot struct {
	Params CreateRowParams
}

// DatabaseData is a self-contained snapshot of a database, returned by
// GetDatabaseData and consumed by CreateDatabaseFromParams to recreate it
// elsewhere. Rows are capped at the row_cap passed to GetDatabaseData.
type DatabaseData struct {
	DatabaseID    string
	PrimaryViewID string
	Fields        []Field
	Views         map[string]ViewData
	Rows          []RowSnapshot
	Truncated     bool
}

// GetDatabaseData reads every field, every view (views flagged embedded
// are excluded unless includeEmbedded), and up to rowCap rows via the
// loader.
func (d *Database) GetDatabaseData(rowCap int, includeRows, includeEmbedded bool) (DatabaseData, error) {
	data := DatabaseData{
		DatabaseID:    d.DatabaseID(),
		PrimaryViewID: d.InlineViewID(),
		Fields:        d.fields.All(),
		Views:         map[string]ViewData{},
	}
	for _, viewID := range d.views.Keys() {
		view, ok := d.OpenView(viewID)
		if !ok {
			continue
		}
		scalars := view.Scalars()
		if scalars.Embedded && !includeEmbedded {
			continue
		}
		vd := ViewData{
			Scalars:        scalars,
			FieldOrders:    view.FieldOrders().All(),
			RowOrders:      view.RowOrders().All(),
			Filters:        view.Filters().All(),
			Sorts:          view.Sorts().All(),
			Groups:         view.Groups().All(),
			FieldSettings:  map[string]map[string]any{},
			LayoutSettings: map[string]map[string]any{},
		}
		for _, fo := range vd.FieldOrders {
			if settings, ok := view.FieldSettings(fo.ID); ok {
				vd.FieldSettings[fo.ID] = settings
			}
		}
		if settings, ok := view.LayoutSettings(Layout(scalars.Layout)); ok {
			vd.LayoutSettings[scalars.Layout] = settings
		}
		data.Views[viewID] = vd
	}

	if !includeRows || d.loader == nil {
		return data, nil
	}
	primary, ok := d.PrimaryView()
	if !ok {
		return data, nil
	}
	orders := primary.RowOrders().All()
	for i, ro := range orders {
		if rowCap > 0 && i >= rowCap {
			data.Truncated = true
			break
		}
		row, err := d.loader.Load(ro.ID)
		if err != nil {
			continue
		}
		rd := row.Data()
		data.Rows = append(data.Rows, RowSnapshot{Params: CreateRowParams{
			ID:         rd.ID,
			DatabaseID: rd.DatabaseID,
			Height:     rd.Height,
			Visibility: rd.Visibility,
			CreatedAt:  rd.CreatedAt,
			CreatedBy:  rd.CreatedBy,
			Cells:      rd.Cells,
		}})
	}
	return data, nil
}

// CreateDatabaseParams configures CreateDatabaseFromParams. Building one
// from a DatabaseData snapshot (rather than constructing it by hand) is
// the canonical duplication/import path.
type CreateDatabaseParams struct {
	DatabaseID    string
	PrimaryViewID string
	Fields        []Field
	Views         map[string]ViewData
	Rows          []RowSnapshot
	Origin        collab.Origin
	ClientID      uint64
}

// FromDatabaseData builds CreateDatabaseParams from a snapshot, reusing
// its ids so the rebuilt database is identical rather than a fork.
func FromDatabaseData(data DatabaseData) CreateDatabaseParams {
	return CreateDatabaseParams{
		DatabaseID:    data.DatabaseID,
		PrimaryViewID: data.PrimaryViewID,
		Fields:        data.Fields,
		Views:         data.Views,
		Rows:          data.Rows,
	}
}

// CreateDatabaseFromParams recreates a database from params: the primary
// view first, then every field, then the primary view's filters, sorts,
// groups and settings, then every row (appended to the primary view's
// row_orders in params.Rows order), then every other view with its full
// configuration, including its own field_orders and row_orders, restored.
func CreateDatabaseFromParams(obj *collab.Object, clock collab.Clock, loader RowLoader, params CreateDatabaseParams) (*Database, error) {
	primaryData := params.Views[params.PrimaryViewID]
	d, err := New(obj, clock, loader, params.DatabaseID, params.PrimaryViewID)
	if err != nil {
		return nil, err
	}
	if primaryData.Scalars.Name != "" {
		if err := d.obj.Transact(func(txn *collab.WriteTxn) error {
			if pv, ok := d.OpenView(params.PrimaryViewID); ok {
				pv.m.Set(txn.Inner(), "name", primaryData.Scalars.Name)
				pv.m.Set(txn.Inner(), "layout", primaryData.Scalars.Layout)
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	for _, field := range params.Fields {
		if err := d.InsertField(field, EndPosition()); err != nil {
			return nil, err
		}
	}

	if primary, ok := d.OpenView(params.PrimaryViewID); ok {
		if err := restoreViewExtras(d, primary, primaryData); err != nil {
			return nil, err
		}
	}

	if loader != nil {
		for _, rs := range params.Rows {
			rowParams := rs.Params
			rowParams.Origin = params.Origin
			rowParams.ClientID = params.ClientID
			if _, err := d.CreateRow(clock, rowParams, EndPosition()); err != nil {
				return nil, err
			}
		}
	}

	for viewID, vd := range params.Views {
		if viewID == params.PrimaryViewID {
			continue
		}
		if err := restoreView(d, viewID, vd); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// restoreViewExtras restores a view's filters/sorts/groups/settings
// without touching field_orders/row_orders, which the primary view
// already receives through the normal InsertField/CreateRow flow.
func restoreViewExtras(d *Database, view *View, vd ViewData) error {
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		for _, f := range vd.Filters {
			if err := view.Filters().InsertAt(txn.Inner(), view.Filters().Len(), f); err != nil {
				return err
			}
		}
		for _, s := range vd.Sorts {
			if err := view.Sorts().InsertAt(txn.Inner(), view.Sorts().Len(), s); err != nil {
				return err
			}
		}
		for _, g := range vd.Groups {
			if err := view.Groups().InsertAt(txn.Inner(), view.Groups().Len(), g); err != nil {
				return err
			}
		}
		for fieldID, settings := range vd.FieldSettings {
			view.SetFieldSettings(txn, fieldID, settings)
		}
		for layout, settings := range vd.LayoutSettings {
			view.SetLayoutSettings(txn, Layout(layout), settings)
		}
		return nil
	})
}

func restoreView(d *Database, viewID string, vd ViewData) error {
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		vm := d.views.SetMap(txn.Inner(), viewID)
		initView(txn, vm, vd.Scalars)
		view := &View{m: vm, db: d}
		for _, fo := range vd.FieldOrders {
			if err := view.FieldOrders().InsertAt(txn.Inner(), view.FieldOrders().Len(), fo); err != nil {
				return err
			}
		}
		for _, ro := range vd.RowOrders {
			if err := view.RowOrders().InsertAt(txn.Inner(), view.RowOrders().Len(), ro); err != nil {
				return err
			}
		}
		for _, f := range vd.Filters {
			if err := view.Filters().InsertAt(txn.Inner(), view.Filters().Len(), f); err != nil {
				return err
			}
		}
		for _, s := range vd.Sorts {
			if err := view.Sorts().InsertAt(txn.Inner(), view.Sorts().Len(), s); err != nil {
				return err
			}
		}
		for _, g := range vd.Groups {
			if err := view.Groups().InsertAt(txn.Inner(), view.Groups().Len(), g); err != nil {
				return err
			}
		}
		for fieldID, settings := range vd.FieldSettings {
			view.SetFieldSettings(txn, fieldID, settings)
		}
		for layout, settings := range vd.LayoutSettings {
			view.SetLayoutSettings(txn, Layout(layout), settings)
		}
		return nil
	})
}
