package folder

import (
	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/idgen"
	"github.com/collabkit/collab/pkg/schema"
)

// sectionKeyFor scopes a built-in or custom section to uid, so each
// user's favorite/recent/trash/private lists are independent entries
// under the shared section map.
func sectionKeyFor(name Section, uid int64) string {
	return string(name) + ":" + idgen.UserKey(uid)
}

// AddSectionItems appends viewIDs to name's section list for uid,
// skipping ids already present.
func (f *Folder) AddSectionItems(name Section, uid int64, viewIDs []string) error {
	if f.section == nil {
		return nil
	}
	key := sectionKeyFor(name, uid)
	now := f.clock.NowMillis()
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		arr, ok := f.section.GetArray(key)
		if !ok {
			arr = f.section.SetArray(txn.Inner(), key)
		}
		existing := map[string]bool{}
		for _, m := range arr.Maps() {
			existing[schema.Ext(m).GetString("id")] = true
		}
		for _, id := range viewIDs {
			if existing[id] {
				continue
			}
			item := arr.PushMap(txn.Inner())
			item.Set(txn.Inner(), "id", id)
			item.Set(txn.Inner(), "timestamp", now)
		}
		return nil
	})
}

// DeleteSectionItems removes viewIDs from name's section list for uid.
func (f *Folder) DeleteSectionItems(name Section, uid int64, viewIDs []string) error {
	if f.section == nil {
		return nil
	}
	key := sectionKeyFor(name, uid)
	remove := map[string]bool{}
	for _, id := range viewIDs {
		remove[id] = true
	}
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		arr, ok := f.section.GetArray(key)
		if !ok {
			return nil
		}
		maps := arr.Maps()
		for i := len(maps) - 1; i >= 0; i-- {
			if remove[schema.Ext(maps[i]).GetString("id")] {
				arr.Delete(txn.Inner(), i)
			}
		}
		return nil
	})
}

// MoveSectionItem relocates viewID within name's section list for uid to
// the position right after prevID (head if empty).
func (f *Folder) MoveSectionItem(name Section, uid int64, viewID, prevID string) error {
	if f.section == nil {
		return nil
	}
	key := sectionKeyFor(name, uid)
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		arr, ok := f.section.GetArray(key)
		if !ok {
			return nil
		}
		from := -1
		to := arr.Len()
		maps := arr.Maps()
		for i, m := range maps {
			id := schema.Ext(m).GetString("id")
			if id == viewID {
				from = i
			}
			if prevID != "" && id == prevID {
				to = i + 1
			}
		}
		if prevID == "" {
			to = 0
		}
		if from < 0 {
			return nil
		}
		arr.Move(txn.Inner(), from, to)
		return nil
	})
}

// ClearSectionForUser removes every item from name's section list for uid.
func (f *Folder) ClearSectionForUser(name Section, uid int64) error {
	if f.section == nil {
		return nil
	}
	key := sectionKeyFor(name, uid)
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		if arr, ok := f.section.GetArray(key); ok {
			arr.DeleteRange(txn.Inner(), 0, arr.Len())
		}
		return nil
	})
}

// GetSectionItems returns name's section list for uid, in order.
func (f *Folder) GetSectionItems(name Section, uid int64) []SectionItem {
	if f.section == nil {
		return nil
	}
	arr, ok := f.section.GetArray(sectionKeyFor(name, uid))
	if !ok {
		return nil
	}
	out := make([]SectionItem, 0, arr.Len())
	for _, m := range arr.Maps() {
		e := schema.Ext(m)
		out = append(out, SectionItem{ID: e.GetString("id"), Timestamp: e.GetInt64("timestamp")})
	}
	return out
}

// GetSectionViews resolves name's section list for uid to full Views,
// silently dropping any id that no longer exists.
func (f *Folder) GetSectionViews(name Section, uid int64) []View {
	var out []View
	for _, item := range f.GetSectionItems(name, uid) {
		if v, ok := f.GetView(item.ID); ok {
			out = append(out, v)
		}
	}
	return out
}

// SetCurrentViewForUser records uid's personal current view, overriding
// the legacy workspace-wide current_view fallback.
func (f *Folder) SetCurrentViewForUser(uid int64, viewID string) error {
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		perUser, ok := f.root.GetMap(currentViewForUserKey)
		if !ok {
			perUser = f.root.SetMap(txn.Inner(), currentViewForUserKey)
		}
		perUser.Set(txn.Inner(), idgen.UserKey(uid), viewID)
		return nil
	})
}

// SetCurrentView sets the legacy workspace-wide current view, used as a
// fallback for users with no per-user entry.
func (f *Folder) SetCurrentView(viewID string) error {
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		f.root.Set(txn.Inner(), currentViewKey, viewID)
		return nil
	})
}

// GetCurrentView resolves uid's current view: the per-user entry if
// present, else the legacy workspace-wide entry, else the first child of
// the first public space that has children, else "" (no current view).
func (f *Folder) GetCurrentView(uid int64) string {
	if perUser, ok := f.root.GetMap(currentViewForUserKey); ok {
		if v, ok := schema.Ext(perUser).GetOptString(idgen.UserKey(uid)); ok && v != "" {
			return v
		}
	}
	if v := schema.Ext(f.root).GetString(currentViewKey); v != "" {
		return v
	}
	return f.firstChildOfFirstPublicSpace()
}

// firstChildOfFirstPublicSpace walks the workspace's direct children
// (its spaces), skipping private ones, and returns the first child of
// the first space that has one. Returns "" if none qualify.
func (f *Folder) firstChildOfFirstPublicSpace() string {
	for _, spaceID := range f.GetChildViewIDs(f.WorkspaceID()) {
		space, ok := f.GetView(spaceID)
		if !ok || !IsSpace(space) || IsPrivateSpace(space) {
			continue
		}
		if children := f.GetChildViewIDs(spaceID); len(children) > 0 {
			return children[0]
		}
	}
	return ""
}
