package database

import (
	"github.com/collabkit/collab"
)

// RowLoader mediates between a Database and the independent Row objects
// its row_orders reference by id. The database itself never holds a Row
// object beyond the scope of one operation — Load/Save/Remove are the
// only points of contact, so callers can back this with any persistence
// strategy (in-memory cache, disk-backed store, network fetch).
type RowLoader interface {
	Load(rowID string) (*Row, error)
	Save(row *Row) error
	Remove(rowID string) error
}

// CreateRowParams configures a new row. Zero timestamps default to the
// database's clock at creation time.
type CreateRowParams struct {
	ID         string
	DatabaseID string
	Height     int
	Visibility int
	CreatedAt  int64
	CreatedBy  int64
	Cells      map[string]Cell
	Origin     collab.Origin
	ClientID   uint64
}

// RowOrderPosition reuses FieldPosition's Start/End/Before/After shape for
// row_orders insertion.
type RowOrderPosition = FieldPosition

// CreateRow validates params, creates a Row object via the loader,
// appends a row_orders entry to every view at pos, and returns the row.
func (d *Database) CreateRow(clock collab.Clock, params CreateRowParams, pos RowOrderPosition) (*Row, error) {
	if d.loader == nil {
		return nil, collab.MissingRequiredData("database.loader")
	}
	if params.ID == "" {
		params.ID = newID()
	}
	if params.DatabaseID == "" {
		params.DatabaseID = d.DatabaseID()
	}
	now := clock.NowMillis()
	if params.CreatedAt == 0 {
		params.CreatedAt = now
	}

	row, err := newRowObject(clock, params)
	if err != nil {
		return nil, err
	}
	if err := d.loader.Save(row); err != nil {
		return nil, err
	}

	err = d.obj.Transact(func(txn *collab.WriteTxn) error {
		for _, viewID := range d.views.Keys() {
			view, ok := d.OpenView(viewID)
			if !ok {
				continue
			}
			orders := view.RowOrders()
			idx := pos.resolve(func(id string) int { return orders.IndexOf("id", id) }, orders.Len())
			if err := orders.InsertAt(txn.Inner(), idx, RowOrder{ID: params.ID, Height: params.Height}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// UpdateRow opens rowID via the loader, applies mutate, and persists it.
func (d *Database) UpdateRow(rowID string, mutate func(*Row) error) error {
	if d.loader == nil {
		return collab.MissingRequiredData("database.loader")
	}
	row, err := d.loader.Load(rowID)
	if err != nil {
		return err
	}
	if err := mutate(row); err != nil {
		return err
	}
	return d.loader.Save(row)
}

// RemoveRow drops the row object via the loader and removes it from
// every view's row_orders.
func (d *Database) RemoveRow(rowID string) error {
	if d.loader == nil {
		return collab.MissingRequiredData("database.loader")
	}
	err := d.obj.Transact(func(txn *collab.WriteTxn) error {
		for _, viewID := range d.views.Keys() {
			view, ok := d.OpenView(viewID)
			if !ok {
				continue
			}
			view.RowOrders().DeleteByID(txn.Inner(), "id", rowID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return d.loader.Remove(rowID)
}

// DuplicateRow creates a new row with the same cell contents, a fresh id,
// new created/modified timestamps, and the same visibility and height,
// inserting it into every view's row_orders right after the source row.
func (d *Database) DuplicateRow(clock collab.Clock, rowID string) (*Row, error) {
	if d.loader == nil {
		return nil, collab.MissingRequiredData("database.loader")
	}
	src, err := d.loader.Load(rowID)
	if err != nil {
		return nil, err
	}
	data := src.Data()
	cells := make(map[string]Cell, len(data.Cells))
	for k, v := range data.Cells {
		cells[k] = v
	}
	return d.CreateRow(clock, CreateRowParams{
		DatabaseID: data.DatabaseID,
		Height:     data.Height,
		Visibility: data.Visibility,
		Cells:      cells,
	}, AfterPosition(rowID))
}
