package database

// Layout enumerates the known database view layout kinds. A view's own
// Layout field is an opaque string per spec; this is the typed
// convenience subset the original closes over for default-settings
// construction, not the sole legal value set.
type Layout string

const (
	LayoutGrid     Layout = "grid"
	LayoutBoard    Layout = "board"
	LayoutCalendar Layout = "calendar"
	LayoutDocument Layout = "document"
)

// DefaultLayoutSettings returns the settings a freshly created view of
// layout should start with.
func DefaultLayoutSettings(layout Layout) map[string]any {
	switch layout {
	case LayoutBoard:
		return map[string]any{"hide_ungrouped_column": false, "collapse_hidden_groups": true}
	case LayoutCalendar:
		return map[string]any{"layout_ty": 0, "first_day_of_week": 0, "show_weekends": true}
	case LayoutGrid:
		return map[string]any{"row_height": "medium"}
	default:
		return map[string]any{}
	}
}
