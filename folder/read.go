package folder

// builtinSections lists the sections folded into every FolderData
// snapshot; custom section names are not discoverable without a
// separate index, so they are left to GetSectionItems/GetSectionViews.
var builtinSections = []Section{SectionFavorite, SectionRecent, SectionTrash, SectionPrivate}

// enrichForUser overlays uid's is_favorite/is_private bits onto view.
// is_favorite comes from membership in uid's favorite section; is_private
// mirrors the view's own space-private flag so document views inherit
// their enclosing space's privacy in the read model.
func (f *Folder) enrichForUser(view View, uid int64) View {
	for _, item := range f.GetSectionItems(SectionFavorite, uid) {
		if item.ID == view.ID {
			view.IsFavorite = true
			break
		}
	}
	view.IsPrivate = IsPrivateSpace(view)
	return view
}

// GetViewForUser returns view, enriched with uid's per-user is_favorite
// and is_private bits when uid is non-nil. A nil uid returns the raw
// view, same as GetView.
func (f *Folder) GetViewForUser(viewID string, uid *int64) (View, bool) {
	view, ok := f.GetView(viewID)
	if !ok {
		return View{}, false
	}
	if uid == nil {
		return view, true
	}
	return f.enrichForUser(view, *uid), true
}

// FolderData is a full per-user snapshot of a folder: every view, the
// parent/child relation, uid's sections, and uid's resolved current view.
type FolderData struct {
	WorkspaceID string                    `json:"workspace_id"`
	Views       []View                    `json:"views"`
	Relation    map[string][]string       `json:"relation"`
	Sections    map[Section][]SectionItem `json:"sections,omitempty"`
	CurrentView string                    `json:"current_view,omitempty"`
}

// GetFolderData assembles a full FolderData snapshot for workspaceID. It
// returns false if the folder's own workspace id doesn't match, and
// otherwise enriches every view (and populates Sections/CurrentView) for
// uid when uid is non-nil.
func (f *Folder) GetFolderData(workspaceID string, uid *int64) (FolderData, bool) {
	if f.WorkspaceID() != workspaceID {
		return FolderData{}, false
	}

	views := f.GetViewRecursively(workspaceID)
	relation := make(map[string][]string, len(views))
	out := make([]View, 0, len(views))
	for _, v := range views {
		if uid != nil {
			v = f.enrichForUser(v, *uid)
		}
		out = append(out, v)
		relation[v.ID] = f.GetChildViewIDs(v.ID)
	}

	data := FolderData{
		WorkspaceID: workspaceID,
		Views:       out,
		Relation:    relation,
	}
	if uid != nil {
		data.Sections = make(map[Section][]SectionItem, len(builtinSections))
		for _, s := range builtinSections {
			data.Sections[s] = f.GetSectionItems(s, *uid)
		}
		data.CurrentView = f.GetCurrentView(*uid)
	}
	return data, true
}
