package database

// RollupDisplayMode controls how a rollup field renders the values it
// collects through its relation.
type RollupDisplayMode int

const (
	RollupCalculated RollupDisplayMode = iota
	RollupOriginalList
	RollupUniqueList
)

// rollupCalculationCount is the default calculation type: count, since
// it's the only one applicable regardless of the target field's type.
const rollupCalculationCount = 5

// RollupTypeOption is the type_option payload for a field_type pointing
// at another field through a relation, stored under TypeOption's
// "18" (FieldTypeRollup) key per the field's tagged-variant scheme.
type RollupTypeOption struct {
	RelationFieldID string            `json:"relation_field_id"`
	TargetFieldID   string            `json:"target_field_id"`
	CalculationType int               `json:"calculation_type"`
	ShowAs          RollupDisplayMode `json:"show_as"`
	ConditionValue  string            `json:"condition_value,omitempty"`
}

// DefaultRollupTypeOption returns a rollup option defaulted to counting,
// with no relation or target field selected yet.
func DefaultRollupTypeOption() RollupTypeOption {
	return RollupTypeOption{CalculationType: rollupCalculationCount, ShowAs: RollupCalculated}
}

// RollupTypeOptionFromMap decodes a rollup option from a field's
// type_option["18"] entry, defaulting any missing key.
func RollupTypeOptionFromMap(m map[string]any) RollupTypeOption {
	opt := DefaultRollupTypeOption()
	if v, ok := m["relation_field_id"].(string); ok {
		opt.RelationFieldID = v
	}
	if v, ok := m["target_field_id"].(string); ok {
		opt.TargetFieldID = v
	}
	if v, ok := asInt(m["calculation_type"]); ok {
		opt.CalculationType = v
	}
	if v, ok := asInt(m["show_as"]); ok {
		opt.ShowAs = RollupDisplayMode(v)
	}
	if v, ok := m["condition_value"].(string); ok {
		opt.ConditionValue = v
	}
	return opt
}

// ToMap encodes the option back into the free-form shape type_option
// entries are stored as.
func (opt RollupTypeOption) ToMap() map[string]any {
	return map[string]any{
		"relation_field_id": opt.RelationFieldID,
		"target_field_id":   opt.TargetFieldID,
		"calculation_type":  opt.CalculationType,
		"show_as":           int(opt.ShowAs),
		"condition_value":   opt.ConditionValue,
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
