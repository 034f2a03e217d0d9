// Package schema provides the typed views every body package (document,
// folder, database) builds over the raw crdt maps and arrays: MapExt's
// leaf getters, AnyMap/FillRef struct<->map conversions, and
// OrderedList[T], the "ordered sequence with sort key" generic structure
// shared by children lists, field orders, row orders and relation lists.
//
// Grounded on the teacher's pkg/marshal generics (RawQuery[I],
// SmartUnmarshal[I]) — the same reflect/json struct<->map idiom,
// generalized from a JSON wire response to a live crdt.Map.
package schema

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/collabkit/collab/internal/crdt"
)

// MapExt wraps a *crdt.Map with typed leaf getters for the small set of
// shapes the domain bodies store directly (string, bool, int64, float64).
type MapExt struct {
	*crdt.Map
}

// Ext adapts a *crdt.Map to its typed view.
func Ext(m *crdt.Map) MapExt { return MapExt{Map: m} }

func (m MapExt) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func (m MapExt) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

func (m MapExt) GetInt64(key string) int64 {
	v, _ := m.Get(key)
	return toInt64(v)
}

func (m MapExt) GetFloat64(key string) float64 {
	v, _ := m.Get(key)
	return toFloat64(v)
}

// GetOptString reports whether key holds a live string leaf.
func (m MapExt) GetOptString(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetOptInt64 reports whether key holds a live numeric leaf.
func (m MapExt) GetOptInt64(key string) (int64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	switch v.(type) {
	case int64, float64:
		return toInt64(v), true
	default:
		return 0, false
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

// AnyMap converts v (typically a struct with json tags) into the Any
// shape a crdt.Map entry expects.
func AnyMap(v any) (map[string]any, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal %T: %w", v, err)
	}
	var m map[string]any
	if err := gojson.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("schema: unmarshal %T to map: %w", v, err)
	}
	return m, nil
}

// FillRef decodes src into dst following dst's json tags. Keys in src
// that dst's type doesn't declare are dropped by this call — callers
// that need byte-for-byte preservation of unknown keys (the tagged-
// variant contract) read ToMap themselves instead of going through a
// typed struct.
func FillRef(src map[string]any, dst any) error {
	b, err := gojson.Marshal(src)
	if err != nil {
		return fmt.Errorf("schema: marshal source map: %w", err)
	}
	if err := gojson.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("schema: fill %T: %w", dst, err)
	}
	return nil
}

// SetStruct writes every json-tagged field of v onto m as leaf entries.
func SetStruct(txn *crdt.Transaction, m *crdt.Map, v any) error {
	fields, err := AnyMap(v)
	if err != nil {
		return err
	}
	for k, val := range fields {
		m.Set(txn, k, val)
	}
	return nil
}

// ToMap snapshots every live leaf entry of m. Nested containers are
// skipped; read those keys directly via GetMap/GetArray/GetText.
func ToMap(m *crdt.Map) map[string]any {
	out := make(map[string]any, m.Len())
	for _, k := range m.Keys() {
		if v, ok := m.Get(k); ok {
			out[k] = v
		}
	}
	return out
}
