package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Operator names a comparison a Condition applies.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpInList      Operator = "in_list"
	OpIncludes    Operator = "includes"
)

// Known reports whether op is a supported operator.
func (op Operator) Known() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpInList, OpIncludes:
		return true
	}
	return false
}

// Condition guards an edge. Field is the node key the answer is stored under.
// Fields the engine does not know are kept in Extra and written back unchanged.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
	Extra    map[string]json.RawMessage
}

// Validate checks the condition shape at the authoring boundary.
func (c Condition) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("%w: field is required", ErrInvalidCondition)
	}
	if !c.Operator.Known() {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidCondition, c.Operator)
	}
	if c.Operator == OpInList {
		if _, ok := AsList(c.Value); !ok {
			return fmt.Errorf("%w: in_list needs a list value", ErrInvalidCondition)
		}
	}
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["field"] = c.Field
	out["operator"] = c.Operator
	out["value"] = c.Value
	return json.Marshal(out)
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	*c = Condition{}
	if v, ok := raw["field"]; ok {
		if err := json.Unmarshal(v, &c.Field); err != nil {
			return fmt.Errorf("%w: field: %v", ErrInvalidCondition, err)
		}
		delete(raw, "field")
	}
	if v, ok := raw["operator"]; ok {
		if err := json.Unmarshal(v, &c.Operator); err != nil {
			return fmt.Errorf("%w: operator: %v", ErrInvalidCondition, err)
		}
		delete(raw, "operator")
	}
	if v, ok := raw["value"]; ok {
		if err := json.Unmarshal(v, &c.Value); err != nil {
			return fmt.Errorf("%w: value: %v", ErrInvalidCondition, err)
		}
		delete(raw, "value")
	}
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

// AsList returns v as a generic list when it is a slice or array.
func AsList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
