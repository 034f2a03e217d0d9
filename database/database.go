// Package database implements the database body: an ordered field list, a
// set of per-view configurations (layout/filters/sorts/groups/field and
// row orders), and a RowLoader-mediated relationship to Row objects, each
// of which is an independent Object. Built directly on a *collab.Object's
// root map.
package database

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/internal/idgen"
	"github.com/collabkit/collab/pkg/schema"
)

const (
	rootKey   = "database"
	fieldsKey = "fields"
	viewsKey  = "views"
	metasKey  = "metas"
	iidKey    = "iid"
)

// Field is one column definition. TypeOption is keyed by field_type_code
// so a field can carry settings for type codes it isn't currently set to
// (e.g. remembering select options after switching away and back).
type Field struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	FieldType  int                       `json:"field_type"`
	TypeOption map[string]map[string]any `json:"type_option,omitempty"`
	IsPrimary  bool                      `json:"is_primary,omitempty"`
	Visibility int                       `json:"visibility,omitempty"`
	Width      int                       `json:"width,omitempty"`
}

// Database is the typed body over a collab.Object's root map.
type Database struct {
	obj    *collab.Object
	loader RowLoader
	root   *crdt.Map
	fields schema.OrderedList[Field]
	views  *crdt.Map
	metas  *schema.MapExt
}

// New creates an empty database with databaseID stamped into its meta and
// a single default Grid primary view.
func New(obj *collab.Object, clock collab.Clock, loader RowLoader, databaseID, primaryViewID string) (*Database, error) {
	d := &Database{obj: obj, loader: loader}
	err := obj.Transact(func(txn *collab.WriteTxn) error {
		root := obj.Root().SetMap(txn.Inner(), rootKey)
		fieldsArr := root.SetArray(txn.Inner(), fieldsKey)
		views := root.SetMap(txn.Inner(), viewsKey)
		metas := root.SetMap(txn.Inner(), metasKey)
		metas.Set(txn.Inner(), "database_id", databaseID)
		metas.Set(txn.Inner(), iidKey, primaryViewID)

		now := clock.NowMillis()
		vm := views.SetMap(txn.Inner(), primaryViewID)
		initView(txn, vm, DatabaseView{ID: primaryViewID, DatabaseID: databaseID, Name: "Grid", Layout: string(LayoutGrid), CreatedAt: now, ModifiedAt: now, IsInline: true})

		d.root = root.Map
		d.fields = schema.NewOrderedList[Field](fieldsArr)
		d.views = views
		d.metas = ref(metas)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Open adapts an already-populated Object as a Database.
func Open(obj *collab.Object, loader RowLoader) (*Database, error) {
	root, ok := obj.Root().GetMap(rootKey)
	if !ok {
		return nil, collab.MissingRequiredData("database")
	}
	fieldsArr, ok := root.GetArray(fieldsKey)
	if !ok {
		return nil, collab.MissingRequiredData("database.fields")
	}
	views, ok := root.GetMap(viewsKey)
	if !ok {
		return nil, collab.MissingRequiredData("database.views")
	}
	metas, ok := root.GetMap(metasKey)
	if !ok {
		return nil, collab.MissingRequiredData("database.metas")
	}
	return &Database{
		obj:    obj,
		loader: loader,
		root:   root,
		fields: schema.NewOrderedList[Field](fieldsArr),
		views:  views,
		metas:  ref(metas),
	}, nil
}

func ref(m *crdt.Map) *schema.MapExt {
	e := schema.Ext(m)
	return &e
}

// DatabaseID returns the database's immutable id.
func (d *Database) DatabaseID() string { return d.metas.GetString("database_id") }

// InlineViewID returns the id of the database's primary (inline) view.
func (d *Database) InlineViewID() string { return d.metas.GetString(iidKey) }

// PrimaryView is a convenience wrapper for OpenView(InlineViewID()).
func (d *Database) PrimaryView() (*View, bool) {
	return d.OpenView(d.InlineViewID())
}

// OpenView adapts the view map at viewID as a typed View.
func (d *Database) OpenView(viewID string) (*View, bool) {
	vm, ok := d.views.GetMap(viewID)
	if !ok {
		return nil, false
	}
	return &View{m: vm, db: d}, true
}

// ViewIDs returns every view id currently in the database, in no
// particular order (views is a map, not an ordered list).
func (d *Database) ViewIDs() []string {
	return d.views.Keys()
}

// Fields returns the ordered field list.
func (d *Database) Fields() schema.OrderedList[Field] { return d.fields }

// GetField looks up a field by id.
func (d *Database) GetField(fieldID string) (Field, bool) {
	for i := 0; i < d.fields.Len(); i++ {
		f, ok := d.fields.At(i)
		if ok && f.ID == fieldID {
			return f, true
		}
	}
	return Field{}, false
}

func newID() string { return idgen.New() }
