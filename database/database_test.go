package database_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/database"
)

// memRowLoader is an in-memory RowLoader for tests: rows live as encoded
// Objects, round-tripping through EncodeFull/ApplyUpdate the same way a
// persisted row would.
type memRowLoader struct {
	t       *testing.T
	clock   collab.Clock
	states  map[string]collab.EncodedCollab
	clients map[string]uint64
}

func newMemRowLoader(t *testing.T, clock collab.Clock) *memRowLoader {
	return &memRowLoader{t: t, clock: clock, states: map[string]collab.EncodedCollab{}, clients: map[string]uint64{}}
}

func (l *memRowLoader) Load(rowID string) (*database.Row, error) {
	enc, ok := l.states[rowID]
	if !ok {
		return nil, collab.MissingRequiredData("row:" + rowID)
	}
	obj, err := collab.Open(enc.DocState, collab.Origin{ClientUID: 1, DeviceID: "loader"}, rowID, l.clients[rowID], collab.Options{Clock: l.clock})
	if err != nil {
		return nil, err
	}
	return database.OpenRow(obj)
}

func (l *memRowLoader) Save(row *database.Row) error {
	enc, err := row.Object().EncodeFull()
	if err != nil {
		return err
	}
	l.states[row.ID()] = enc
	l.clients[row.ID()] = 1
	return nil
}

func (l *memRowLoader) Remove(rowID string) error {
	delete(l.states, rowID)
	delete(l.clients, rowID)
	return nil
}

func newTestObject(t *testing.T) *collab.Object {
	t.Helper()
	obj := collab.New(collab.Origin{ClientUID: 1, DeviceID: "d1"}, "db-1", 1, collab.Options{})
	t.Cleanup(obj.Close)
	return obj
}

func TestNewDatabaseHasDefaultGridView(t *testing.T) {
	obj := newTestObject(t)
	d, err := database.New(obj, collab.SystemClock{}, nil, "database-1", "view-1")
	require.NoError(t, err)

	require.Equal(t, "database-1", d.DatabaseID())
	require.Equal(t, "view-1", d.InlineViewID())
	pv, ok := d.PrimaryView()
	require.True(t, ok)
	require.Equal(t, "Grid", pv.Scalars().Name)
	require.True(t, pv.Scalars().IsInline)
}

func TestInsertFieldPopulatesEveryViewsFieldOrders(t *testing.T) {
	obj := newTestObject(t)
	d, err := database.New(obj, collab.SystemClock{}, nil, "database-1", "view-1")
	require.NoError(t, err)

	require.NoError(t, d.InsertField(database.Field{ID: "f1", Name: "Title", FieldType: 0}, database.StartPosition()))
	require.NoError(t, d.InsertField(database.Field{ID: "f2", Name: "Status", FieldType: 3}, database.EndPosition()))

	pv, _ := d.PrimaryView()
	orders := pv.FieldOrders().All()
	require.Len(t, orders, 2)
	require.Equal(t, "f1", orders[0].ID)
	require.Equal(t, "f2", orders[1].ID)

	settings, ok := pv.FieldSettings("f1")
	require.True(t, ok)
	require.Equal(t, true, settings["visibility"])
}

func TestRemoveFieldDeletesFromFieldsAndOrders(t *testing.T) {
	obj := newTestObject(t)
	d, err := database.New(obj, collab.SystemClock{}, nil, "database-1", "view-1")
	require.NoError(t, err)
	require.NoError(t, d.InsertField(database.Field{ID: "f1", Name: "Title"}, database.EndPosition()))

	require.NoError(t, d.RemoveField("f1"))
	_, ok := d.GetField("f1")
	require.False(t, ok)
	pv, _ := d.PrimaryView()
	require.Equal(t, 0, pv.FieldOrders().Len())
}

func TestCreateRowAppendsToEveryViewsRowOrders(t *testing.T) {
	obj := newTestObject(t)
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)

	r1, err := d.CreateRow(clock, database.CreateRowParams{ID: "r1", CreatedBy: 42}, database.EndPosition())
	require.NoError(t, err)
	require.Equal(t, "r1", r1.ID())

	pv, _ := d.PrimaryView()
	orders := pv.RowOrders().All()
	require.Len(t, orders, 1)
	require.Equal(t, "r1", orders[0].ID)
}

func TestRemoveRowDropsFromLoaderAndOrders(t *testing.T) {
	obj := newTestObject(t)
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	_, err = d.CreateRow(clock, database.CreateRowParams{ID: "r1"}, database.EndPosition())
	require.NoError(t, err)

	require.NoError(t, d.RemoveRow("r1"))
	pv, _ := d.PrimaryView()
	require.Equal(t, 0, pv.RowOrders().Len())
	_, err = loader.Load("r1")
	require.Error(t, err)
}

func TestDuplicateRowCopiesCellsWithNewID(t *testing.T) {
	obj := newTestObject(t)
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	_, err = d.CreateRow(clock, database.CreateRowParams{
		ID:    "r1",
		Cells: map[string]database.Cell{"f1": {FieldType: 0, Data: "hello"}},
	}, database.EndPosition())
	require.NoError(t, err)

	dup, err := d.DuplicateRow(clock, "r1")
	require.NoError(t, err)
	require.NotEqual(t, "r1", dup.ID())
	cell, ok := dup.GetCell("f1")
	require.True(t, ok)
	require.Equal(t, "hello", cell.Data)

	pv, _ := d.PrimaryView()
	orders := pv.RowOrders().All()
	require.Len(t, orders, 2)
	require.Equal(t, "r1", orders[0].ID)
	require.Equal(t, dup.ID(), orders[1].ID)
}

func TestCreateLinkedViewInheritsFieldAndRowOrders(t *testing.T) {
	obj := newTestObject(t)
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	require.NoError(t, d.InsertField(database.Field{ID: "f1", Name: "Title"}, database.EndPosition()))
	_, err = d.CreateRow(clock, database.CreateRowParams{ID: "r1"}, database.EndPosition())
	require.NoError(t, err)

	linked, err := d.CreateLinkedView(clock, "view-2", "Board view", database.LayoutBoard)
	require.NoError(t, err)
	require.Equal(t, 1, linked.FieldOrders().Len())
	require.Equal(t, 1, linked.RowOrders().Len())
}

func TestDuplicateLinkedViewIsIndependent(t *testing.T) {
	obj := newTestObject(t)
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	require.NoError(t, d.InsertField(database.Field{ID: "f1", Name: "Title"}, database.EndPosition()))
	pv, _ := d.PrimaryView()
	require.NoError(t, obj.Transact(func(txn *collab.WriteTxn) error {
		return pv.Filters().Append(txn.Inner(), map[string]any{"field_id": "f1"})
	}))

	dup, err := d.DuplicateLinkedView(clock, "view-1")
	require.NoError(t, err)
	require.Equal(t, 1, dup.Filters().Len())

	require.NoError(t, obj.Transact(func(txn *collab.WriteTxn) error {
		return dup.Filters().Append(txn.Inner(), map[string]any{"field_id": "f2"})
	}))
	require.Equal(t, 1, pv.Filters().Len())
	require.Equal(t, 2, dup.Filters().Len())
}

func TestDeleteViewRefusesPrimaryWhileOthersExist(t *testing.T) {
	obj := newTestObject(t)
	clock := collab.FixedClock(1000)
	d, err := database.New(obj, clock, nil, "database-1", "view-1")
	require.NoError(t, err)
	_, err = d.CreateLinkedView(clock, "view-2", "Board", database.LayoutBoard)
	require.NoError(t, err)

	err = d.DeleteView("view-1")
	require.ErrorIs(t, err, collab.ErrCannotDeletePrimary)

	require.NoError(t, d.DeleteView("view-2"))
	require.NoError(t, d.DeleteView("view-1"))
}

func TestObserveCoalescesRowReorderIntoOneEvent(t *testing.T) {
	obj := newTestObject(t)
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	_, err = d.CreateRow(clock, database.CreateRowParams{ID: "r1"}, database.EndPosition())
	require.NoError(t, err)
	_, err = d.CreateRow(clock, database.CreateRowParams{ID: "r2"}, database.EndPosition())
	require.NoError(t, err)

	changes, cancel := d.Observe()
	defer cancel()

	pv, _ := d.PrimaryView()
	require.NoError(t, obj.Transact(func(txn *collab.WriteTxn) error {
		pv.RowOrders().Array().Move(txn.Inner(), 0, 2)
		return nil
	}))

	change := <-changes
	require.True(t, change.IsLocalChange)
	var orderEvents []database.DatabaseEvent
	for _, e := range change.Events {
		if e.Kind == database.RowOrdersChanged {
			orderEvents = append(orderEvents, e)
		}
	}
	require.Len(t, orderEvents, 1)
	require.NotEmpty(t, orderEvents[0].InsertedRows)
	require.NotEmpty(t, orderEvents[0].DeletedRows)
}

func TestGetDatabaseDataRoundTripsThroughCreateDatabaseFromParams(t *testing.T) {
	obj := newTestObject(t)
	clock := collab.FixedClock(1000)
	loader := newMemRowLoader(t, clock)
	d, err := database.New(obj, clock, loader, "database-1", "view-1")
	require.NoError(t, err)
	require.NoError(t, d.InsertField(database.Field{ID: "f1", Name: "Title"}, database.EndPosition()))
	_, err = d.CreateRow(clock, database.CreateRowParams{
		ID:        "r1",
		CreatedBy: 12345,
		Cells:     map[string]database.Cell{"f1": {FieldType: 0, Data: "hello"}},
	}, database.EndPosition())
	require.NoError(t, err)

	data, err := d.GetDatabaseData(0, true, false)
	require.NoError(t, err)
	require.Len(t, data.Fields, 1)
	require.Len(t, data.Rows, 1)

	dstObj := collab.New(collab.Origin{ClientUID: 2, DeviceID: "d2"}, "db-2", 2, collab.Options{})
	t.Cleanup(dstObj.Close)
	dstLoader := newMemRowLoader(t, clock)
	rebuilt, err := database.CreateDatabaseFromParams(dstObj, clock, dstLoader, database.FromDatabaseData(data))
	require.NoError(t, err)

	_, ok := rebuilt.GetField("f1")
	require.True(t, ok)
	row, err := dstLoader.Load("r1")
	require.NoError(t, err)
	require.Equal(t, int64(12345), row.Data().CreatedBy)
	cell, ok := row.GetCell("f1")
	require.True(t, ok)
	require.Equal(t, "hello", cell.Data)

	rebuiltData, err := rebuilt.GetDatabaseData(0, true, false)
	require.NoError(t, err)
	if diff := cmp.Diff(data.Fields, rebuiltData.Fields); diff != "" {
		t.Errorf("field set diverged after rebuild (-original +rebuilt):\n%s", diff)
	}
}
