package database

import (
	"strconv"
	"strings"
)

// Field type codes for the cell shapes cellparse.go normalizes. The full
// set is open-ended (field_type is just an int per §3.2's tagged-variant
// convention); these are the ones with a dedicated parser.
const (
	FieldTypeSummary = 15
	FieldTypeTime    = 16
	FieldTypeMedia   = 17
	FieldTypeRollup  = 18
)

// SummaryCellData is a free-form text value, e.g. an AI-generated summary.
type SummaryCellData string

// IsEmpty reports whether the summary has no text.
func (d SummaryCellData) IsEmpty() bool { return d == "" }

// ParseSummaryCell reads a summary cell's Data as a string; Data of any
// other type yields an empty summary.
func ParseSummaryCell(c Cell) SummaryCellData {
	if s, ok := c.Data.(string); ok {
		return SummaryCellData(s)
	}
	return ""
}

// NewSummaryCell builds a Cell carrying a summary value.
func NewSummaryCell(text string) Cell {
	return Cell{FieldType: FieldTypeSummary, Data: text}
}

// TimeCellData is a duration or timestamp in seconds, absent when the
// cell holds no parseable number.
type TimeCellData struct {
	Seconds int64
	Valid   bool
}

// ParseTimeCell parses a time cell's Data, which is stored as a string so
// partially-typed values round-trip without forcing a numeric cast.
func ParseTimeCell(c Cell) TimeCellData {
	s, ok := c.Data.(string)
	if !ok {
		return TimeCellData{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeCellData{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return TimeCellData{}
	}
	return TimeCellData{Seconds: n, Valid: true}
}

// NewTimeCell builds a Cell from a duration in seconds.
func NewTimeCell(seconds int64) Cell {
	return Cell{FieldType: FieldTypeTime, Data: strconv.FormatInt(seconds, 10)}
}

// MediaFile is one attachment referenced by a media cell.
type MediaFile struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	UploadType int    `json:"upload_type"`
	FileType   int    `json:"file_type"`
}

// MediaCellData is the parsed shape of a media cell: a list of files, the
// original storing them as a comma-joined list of names in Data and the
// per-file detail in Extra["files"].
type MediaCellData struct {
	Files []MediaFile
}

// ParseMediaCell reads a media cell's file list from Extra, falling back
// to an empty list when absent or malformed.
func ParseMediaCell(c Cell) MediaCellData {
	raw, ok := c.Extra["files"]
	if !ok {
		return MediaCellData{}
	}
	items, ok := raw.([]any)
	if !ok {
		return MediaCellData{}
	}
	files := make([]MediaFile, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		files = append(files, MediaFile{
			Name:       stringField(m, "name"),
			URL:        stringField(m, "url"),
			UploadType: intField(m, "upload_type"),
			FileType:   intField(m, "file_type"),
		})
	}
	return MediaCellData{Files: files}
}

// NewMediaCell builds a Cell from a file list, joining names into Data
// for cheap display without decoding Extra.
func NewMediaCell(files []MediaFile) Cell {
	names := make([]string, len(files))
	rawFiles := make([]any, len(files))
	for i, f := range files {
		names[i] = f.Name
		rawFiles[i] = map[string]any{
			"name":        f.Name,
			"url":         f.URL,
			"upload_type": f.UploadType,
			"file_type":   f.FileType,
		}
	}
	return Cell{
		FieldType: FieldTypeMedia,
		Data:      strings.Join(names, ", "),
		Extra:     map[string]any{"files": rawFiles},
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
