package folder

import (
	"fmt"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/internal/idgen"
	"github.com/collabkit/collab/pkg/schema"
)

// InsertView creates view under parentID's relation list, right after
// prevID (head if empty). Mints an id if the caller left one unset.
func (f *Folder) InsertView(view View, parentID, prevID string) (View, error) {
	if view.ID == "" {
		view.ID = idgen.New()
	}
	view.ParentViewID = parentID
	if _, ok := f.GetView(parentID); !ok {
		return View{}, fmt.Errorf("%w: parent view %s", collab.ErrParentNotFound, parentID)
	}
	now := f.clock.NowMillis()
	if view.CreatedAt == 0 {
		view.CreatedAt = now
	}
	view.LastEditedTime = now

	err := f.obj.Transact(func(txn *collab.WriteTxn) error {
		vm := f.views.SetMap(txn.Inner(), view.ID)
		setViewFields(txn, vm, view)
		f.relation.SetArray(txn.Inner(), view.ID)
		arr, ok := f.relation.GetArray(parentID)
		if !ok {
			arr = f.relation.SetArray(txn.Inner(), parentID)
		}
		idx := insertIndex(arr, prevID)
		arr.Insert(txn.Inner(), idx, view.ID)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return view, nil
}

// InsertNestedViews inserts each view in views, in order, under parentID.
func (f *Folder) InsertNestedViews(parentID string, views []View) error {
	for _, v := range views {
		if _, err := f.InsertView(v, parentID, ""); err != nil {
			return err
		}
	}
	return nil
}

// MoveView relocates viewID within its current parent's relation list to
// the position right after prevID (head if empty).
func (f *Folder) MoveView(viewID, prevID string) error {
	view, ok := f.GetView(viewID)
	if !ok {
		return collab.MissingRequiredData("view:" + viewID)
	}
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		arr, ok := f.relation.GetArray(view.ParentViewID)
		if !ok {
			return nil
		}
		pos := indexOfArray(arr, viewID)
		if pos < 0 {
			return nil
		}
		to := insertIndex(arr, prevID)
		arr.Move(txn.Inner(), pos, to)
		return nil
	})
}

// MoveNestedView relocates viewID from its current parent to newParentID,
// after prevID (head if empty). Fails with ErrCycleDetected if
// newParentID is viewID itself or one of its descendants.
func (f *Folder) MoveNestedView(viewID, newParentID, prevID string) error {
	view, ok := f.GetView(viewID)
	if !ok {
		return collab.MissingRequiredData("view:" + viewID)
	}
	if newParentID == viewID || f.isDescendant(viewID, newParentID) {
		return collab.ErrCycleDetected
	}
	if _, ok := f.GetView(newParentID); !ok {
		return collab.ErrParentNotFound
	}
	oldParentID := view.ParentViewID

	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		if arr, ok := f.relation.GetArray(oldParentID); ok {
			if pos := indexOfArray(arr, viewID); pos >= 0 {
				arr.Delete(txn.Inner(), pos)
			}
		}
		arr, ok := f.relation.GetArray(newParentID)
		if !ok {
			arr = f.relation.SetArray(txn.Inner(), newParentID)
		}
		idx := insertIndex(arr, prevID)
		arr.Insert(txn.Inner(), idx, viewID)
		view.ParentViewID = newParentID
		view.LastEditedTime = f.clock.NowMillis()
		vm, _ := f.views.GetMap(viewID)
		setViewFields(txn, vm, view)
		return nil
	})
}

// UpdateView merges the supplied fields into the existing view's fields
// that mutate (name, icon, extra, layout, is_locked); id/parent/created_*
// are left untouched.
func (f *Folder) UpdateView(viewID string, mutate func(*View)) error {
	view, ok := f.GetView(viewID)
	if !ok {
		return collab.MissingRequiredData("view:" + viewID)
	}
	mutate(&view)
	view.LastEditedTime = f.clock.NowMillis()
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		vm, ok := f.views.GetMap(viewID)
		if !ok {
			return nil
		}
		setViewFields(txn, vm, view)
		return nil
	})
}

// DeleteViews removes every view in viewIDs and its descendants, pruning
// each from its parent's relation list.
func (f *Folder) DeleteViews(viewIDs []string) error {
	return f.obj.Transact(func(txn *collab.WriteTxn) error {
		for _, id := range viewIDs {
			f.deleteViewSubtree(txn, id)
		}
		return nil
	})
}

func (f *Folder) deleteViewSubtree(txn *collab.WriteTxn, viewID string) {
	view, ok := f.GetView(viewID)
	if !ok {
		return
	}
	for _, childID := range f.GetChildViewIDs(viewID) {
		f.deleteViewSubtree(txn, childID)
	}
	f.relation.Delete(txn.Inner(), viewID)
	f.views.Delete(txn.Inner(), viewID)
	if view.ParentViewID != "" {
		if arr, ok := f.relation.GetArray(view.ParentViewID); ok {
			if pos := indexOfArray(arr, viewID); pos >= 0 {
				arr.Delete(txn.Inner(), pos)
			}
		}
	}
	f.removeFromAllSections(txn, viewID)
}

// removeFromAllSections drops viewID from every user's every section list
// (favorite, recent, trash, private, custom), so a deleted view never
// lingers in a section after delete_views.
func (f *Folder) removeFromAllSections(txn *collab.WriteTxn, viewID string) {
	if f.section == nil {
		return
	}
	for _, key := range f.section.Keys() {
		arr, ok := f.section.GetArray(key)
		if !ok {
			continue
		}
		maps := arr.Maps()
		for i := len(maps) - 1; i >= 0; i-- {
			if schema.Ext(maps[i]).GetString("id") == viewID {
				arr.Delete(txn.Inner(), i)
			}
		}
	}
}

func (f *Folder) isDescendant(ancestorID, candidateID string) bool {
	visited := map[string]bool{}
	id := candidateID
	for {
		if visited[id] {
			return false
		}
		visited[id] = true
		v, ok := f.GetView(id)
		if !ok || v.ParentViewID == "" {
			return false
		}
		if v.ParentViewID == ancestorID {
			return true
		}
		id = v.ParentViewID
	}
}

func insertIndex(arr *crdt.Array, prevID string) int {
	if prevID == "" {
		return 0
	}
	if pos := indexOfArray(arr, prevID); pos >= 0 {
		return pos + 1
	}
	return arr.Len()
}
