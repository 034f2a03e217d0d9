// Package folder implements the folder body: a tree of views addressed
// by a parent/child relation map, per-user sections (favorite, recent,
// trash, private, custom) and per-user current-view resolution. Built
// directly on a *collab.Object's root map.
package folder

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/pkg/schema"
)

const (
	rootKey              = "folder"
	metaKey              = "meta"
	workspaceIDKey       = "workspace_id"
	currentViewKey       = "current_view"
	currentViewForUserKey = "current_view_for_user"
	viewsKey             = "views"
	relationKey          = "relation"
	sectionKey           = "section"
)

// Section names the folder's built-in per-user collections. Custom
// sections use any other non-empty string.
type Section string

const (
	SectionFavorite Section = "favorite"
	SectionRecent   Section = "recent"
	SectionTrash    Section = "trash"
	SectionPrivate  Section = "private"
)

// View mirrors one entry of the views map.
type View struct {
	ID             string `json:"id"`
	ParentViewID   string `json:"parent_view_id,omitempty"`
	Name           string `json:"name"`
	CreatedAt      int64  `json:"created_at"`
	CreatedBy      int64  `json:"created_by,omitempty"`
	LastEditedTime int64  `json:"last_edited_time"`
	LastEditedBy   int64  `json:"last_edited_by,omitempty"`
	Layout         string `json:"layout"`
	Icon           string `json:"icon,omitempty"`
	Extra          string `json:"extra,omitempty"`
	IsLocked       bool   `json:"is_locked,omitempty"`

	// IsFavorite and IsPrivate are per-user overlay bits, populated only
	// by GetViewForUser/GetFolderData; they are never persisted on the
	// view's own map entry.
	IsFavorite bool `json:"is_favorite,omitempty"`
	IsPrivate  bool `json:"is_private,omitempty"`
}

// SectionItem is one entry of a per-user section list.
type SectionItem struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// Folder is the typed body over a collab.Object's root map.
type Folder struct {
	obj      *collab.Object
	clock    collab.Clock
	root     *crdt.Map
	meta     *schema.MapExt
	views    *crdt.Map
	relation *crdt.Map
	section  *crdt.Map
}

// New creates a folder whose root view is workspaceID.
func New(obj *collab.Object, clock collab.Clock, workspaceID string, uid int64) (*Folder, error) {
	f := &Folder{obj: obj, clock: clock}
	err := obj.Transact(func(txn *collab.WriteTxn) error {
		root := obj.Root().SetMap(txn.Inner(), rootKey)
		meta := root.SetMap(txn.Inner(), metaKey)
		meta.Set(txn.Inner(), workspaceIDKey, workspaceID)
		views := root.SetMap(txn.Inner(), viewsKey)
		relation := root.SetMap(txn.Inner(), relationKey)
		section := root.SetMap(txn.Inner(), sectionKey)
		relation.SetArray(txn.Inner(), workspaceID)

		now := clock.NowMillis()
		wsView := views.SetMap(txn.Inner(), workspaceID)
		setViewFields(txn, wsView, View{ID: workspaceID, Name: "Workspace", CreatedAt: now, CreatedBy: uid, LastEditedTime: now, LastEditedBy: uid, Layout: "document", Extra: `{"is_space":true}`})

		f.root = root.Map
		f.meta = ref(meta)
		f.views = views
		f.relation = relation
		f.section = section
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Open adapts an already-populated Object as a Folder.
func Open(obj *collab.Object, clock collab.Clock) (*Folder, error) {
	root, ok := obj.Root().GetMap(rootKey)
	if !ok {
		return nil, collab.MissingRequiredData("folder")
	}
	meta, ok := root.GetMap(metaKey)
	if !ok {
		return nil, collab.MissingRequiredData("folder.meta")
	}
	views, ok := root.GetMap(viewsKey)
	if !ok {
		return nil, collab.MissingRequiredData("folder.views")
	}
	relation, ok := root.GetMap(relationKey)
	if !ok {
		return nil, collab.MissingRequiredData("folder.relation")
	}
	section, ok := root.GetMap(sectionKey)
	if !ok {
		section = nil
	}
	if _, ok := meta.Get(workspaceIDKey); !ok {
		return nil, collab.MissingRequiredData("folder.meta.workspace_id")
	}
	return &Folder{obj: obj, clock: clock, root: root, meta: ref(meta), views: views, relation: relation, section: section}, nil
}

func ref(m *crdt.Map) *schema.MapExt {
	e := schema.Ext(m)
	return &e
}

// WorkspaceID returns the folder's immutable workspace id.
func (f *Folder) WorkspaceID() string { return f.meta.GetString(workspaceIDKey) }

func setViewFields(txn *collab.WriteTxn, m *crdt.Map, v View) {
	m.Set(txn.Inner(), "id", v.ID)
	m.Set(txn.Inner(), "parent_view_id", v.ParentViewID)
	m.Set(txn.Inner(), "name", v.Name)
	m.Set(txn.Inner(), "created_at", v.CreatedAt)
	m.Set(txn.Inner(), "created_by", v.CreatedBy)
	m.Set(txn.Inner(), "last_edited_time", v.LastEditedTime)
	m.Set(txn.Inner(), "last_edited_by", v.LastEditedBy)
	m.Set(txn.Inner(), "layout", v.Layout)
	m.Set(txn.Inner(), "icon", v.Icon)
	m.Set(txn.Inner(), "extra", v.Extra)
	m.Set(txn.Inner(), "is_locked", v.IsLocked)
}

func viewFromMap(m *crdt.Map) View {
	e := schema.Ext(m)
	return View{
		ID:             e.GetString("id"),
		ParentViewID:   e.GetString("parent_view_id"),
		Name:           e.GetString("name"),
		CreatedAt:      e.GetInt64("created_at"),
		CreatedBy:      e.GetInt64("created_by"),
		LastEditedTime: e.GetInt64("last_edited_time"),
		LastEditedBy:   e.GetInt64("last_edited_by"),
		Layout:         e.GetString("layout"),
		Icon:           e.GetString("icon"),
		Extra:          e.GetString("extra"),
		IsLocked:       e.GetBool("is_locked"),
	}
}

// GetView returns the raw view (relation/children not enriched).
func (f *Folder) GetView(viewID string) (View, bool) {
	m, ok := f.views.GetMap(viewID)
	if !ok {
		return View{}, false
	}
	return viewFromMap(m), true
}

// GetChildViewIDs returns relation[parentID] in order, the authoritative
// child order (a View's own "children" is a denormalized read-side copy
// and is recomputed from here rather than stored).
func (f *Folder) GetChildViewIDs(parentID string) []string {
	arr, ok := f.relation.GetArray(parentID)
	if !ok {
		return nil
	}
	out := make([]string, 0, arr.Len())
	for _, v := range arr.Values() {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetViewsBelongTo walks relation[parentID] resolving each id to a View.
func (f *Folder) GetViewsBelongTo(parentID string) []View {
	var out []View
	for _, id := range f.GetChildViewIDs(parentID) {
		if v, ok := f.GetView(id); ok {
			out = append(out, v)
		}
	}
	return out
}

// GetViewRecursively walks the tree from viewID depth-first, breaking
// cycles with a visited set so a malformed relation map can't loop.
func (f *Folder) GetViewRecursively(viewID string) []View {
	var out []View
	visited := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		v, ok := f.GetView(id)
		if !ok {
			return
		}
		out = append(out, v)
		for _, childID := range f.GetChildViewIDs(id) {
			walk(childID)
		}
	}
	walk(viewID)
	return out
}

func indexOfArray(arr *crdt.Array, id string) int {
	for i, v := range arr.Values() {
		if s, ok := v.(string); ok && s == id {
			return i
		}
	}
	return -1
}
