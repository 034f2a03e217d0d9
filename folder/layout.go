package folder

import (
	"github.com/buger/jsonparser"

	"github.com/collabkit/collab/internal/jsonutil"
)

// Layout enumerates the known view layout kinds. Custom layout strings
// any other value round-trip unchanged; this is the typed convenience
// view over View.Layout, not the sole legal value set.
type Layout string

const (
	LayoutDocument Layout = "document"
	LayoutGrid     Layout = "grid"
	LayoutBoard    Layout = "board"
	LayoutCalendar Layout = "calendar"
	LayoutChat     Layout = "chat"
)

// SpaceInfo is the typed shape of a space view's extra JSON blob.
type SpaceInfo struct {
	IsSpace         bool   `json:"is_space"`
	IsPrivate       bool   `json:"is_private,omitempty"`
	SpacePermission int    `json:"space_permission,omitempty"`
	SpaceIcon       string `json:"space_icon,omitempty"`
	SpaceIconColor  string `json:"space_icon_color,omitempty"`
}

// IsSpace probes view.Extra for "is_space":true without a full unmarshal —
// most views aren't spaces, so this is the hot path.
func IsSpace(view View) bool {
	if view.Extra == "" {
		return false
	}
	v, err := jsonparser.GetBoolean([]byte(view.Extra), "is_space")
	return err == nil && v
}

// IsPrivateSpace reports whether view is a private space.
func IsPrivateSpace(view View) bool {
	if !IsSpace(view) {
		return false
	}
	v, err := jsonparser.GetBoolean([]byte(view.Extra), "is_private")
	return err == nil && v
}

// SpaceInfoOf fully decodes view.Extra once IsSpace has confirmed it's
// worth the unmarshal.
func SpaceInfoOf(view View) (SpaceInfo, bool) {
	if !IsSpace(view) {
		return SpaceInfo{}, false
	}
	var info SpaceInfo
	if err := jsonutil.Into(view.Extra, &info); err != nil {
		return SpaceInfo{}, false
	}
	return info, true
}

// EncodeSpaceInfo serializes info for storage in View.Extra.
func EncodeSpaceInfo(info SpaceInfo) string {
	info.IsSpace = true
	s, err := jsonutil.ToJSON(info)
	if err != nil {
		return `{"is_space":true}`
	}
	return s
}
