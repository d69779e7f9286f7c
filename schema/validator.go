package schema

import (
	"fmt"
	"reflect"

	"github.com/nicia-ai/typegraph/kind"
)

// Validator parses and defaults an unchecked property map to a typed
// record, or raises a validation error. Implementations are expected to
// return a *typegraph.ValidationError on failure, though the Store treats
// any non-nil error as validation failure and wraps it if it isn't already
// one.
type Validator interface {
	Validate(props map[string]any) (map[string]any, error)
}

// ValidatorFunc adapts a plain function to a Validator.
type ValidatorFunc func(props map[string]any) (map[string]any, error)

func (f ValidatorFunc) Validate(props map[string]any) (map[string]any, error) { return f(props) }

// Rule checks a single already-type-checked, already-defaulted value,
// returning a human-readable complaint or "" if the value is acceptable.
type Rule func(value any) string

// FieldSchema declares one property's type and validation rules.
type FieldSchema struct {
	Name       string
	Type       kind.ValueType
	Array      bool
	required   bool
	defaultFn  func() any
	rules      []Rule
}

// Field starts a FieldSchema for the given name and value type.
func Field(name string, t kind.ValueType) FieldSchema {
	return FieldSchema{Name: name, Type: t}
}

// Required rejects the field if absent and no default is set.
func (f FieldSchema) Required() FieldSchema { f.required = true; return f }

// Default supplies a value (or value-producing func) used when the field
// is absent from the input props.
func (f FieldSchema) Default(v any) FieldSchema {
	if fn, ok := v.(func() any); ok {
		f.defaultFn = fn
	} else {
		f.defaultFn = func() any { return v }
	}
	return f
}

// NotEmpty rejects empty strings.
func (f FieldSchema) NotEmpty() FieldSchema {
	f.rules = append(f.rules, func(v any) string {
		if s, ok := v.(string); ok && s == "" {
			return "must not be empty"
		}
		return ""
	})
	return f
}

// MaxLen rejects strings longer than n runes.
func (f FieldSchema) MaxLen(n int) FieldSchema {
	f.rules = append(f.rules, func(v any) string {
		if s, ok := v.(string); ok && len([]rune(s)) > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
		return ""
	})
	return f
}

// Min rejects numeric values below n.
func (f FieldSchema) Min(n float64) FieldSchema {
	f.rules = append(f.rules, func(v any) string {
		if x, ok := toFloat(v); ok && x < n {
			return fmt.Sprintf("must be >= %v", n)
		}
		return ""
	})
	return f
}

// Max rejects numeric values above n.
func (f FieldSchema) Max(n float64) FieldSchema {
	f.rules = append(f.rules, func(v any) string {
		if x, ok := toFloat(v); ok && x > n {
			return fmt.Sprintf("must be <= %v", n)
		}
		return ""
	})
	return f
}

// Validate adds an arbitrary rule.
func (f FieldSchema) Validate(r Rule) FieldSchema { f.rules = append(f.rules, r); return f }

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// StructValidator is the default Validator: a compiled list of
// FieldSchema entries applied in order. Properties not named in Fields are
// rejected unless AllowExtra is set.
type StructValidator struct {
	Fields     []FieldSchema
	AllowExtra bool
}

// NewStructValidator compiles a field list into a Validator.
func NewStructValidator(fields []FieldSchema) *StructValidator {
	return &StructValidator{Fields: fields}
}

func (sv *StructValidator) Validate(props map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(props))
	var failed []string
	var msgs []string

	known := make(map[string]struct{}, len(sv.Fields))
	for _, f := range sv.Fields {
		known[f.Name] = struct{}{}
		v, present := props[f.Name]
		if !present {
			if f.defaultFn != nil {
				v = f.defaultFn()
				present = true
			} else if f.required {
				failed = append(failed, f.Name)
				msgs = append(msgs, fmt.Sprintf("%s: required", f.Name))
				continue
			} else {
				continue
			}
		}
		if present && v != nil {
			if err := checkValueType(f, v); err != "" {
				failed = append(failed, f.Name)
				msgs = append(msgs, fmt.Sprintf("%s: %s", f.Name, err))
				continue
			}
		}
		for _, rule := range f.rules {
			if msg := rule(v); msg != "" {
				failed = append(failed, f.Name)
				msgs = append(msgs, fmt.Sprintf("%s: %s", f.Name, msg))
				break
			}
		}
		out[f.Name] = v
	}

	if !sv.AllowExtra {
		for name := range props {
			if _, ok := known[name]; !ok {
				failed = append(failed, name)
				msgs = append(msgs, fmt.Sprintf("%s: unknown property", name))
			}
		}
	}

	if len(failed) > 0 {
		return nil, &ValidationError{Fields: failed, Message: joinMsgs(msgs)}
	}
	return out, nil
}

func checkValueType(f FieldSchema, v any) string {
	if f.Array {
		if reflect.ValueOf(v).Kind() != reflect.Slice {
			return "must be an array"
		}
		return ""
	}
	switch f.Type {
	case kind.ValueString:
		if _, ok := v.(string); !ok {
			return "must be a string"
		}
	case kind.ValueNumber:
		if _, ok := toFloat(v); !ok {
			return "must be a number"
		}
	case kind.ValueBoolean:
		if _, ok := v.(bool); !ok {
			return "must be a boolean"
		}
	}
	return ""
}

func joinMsgs(msgs []string) string {
	out := ""
	for i, m := range msgs {
		if i > 0 {
			out += "; "
		}
		out += m
	}
	return out
}

// ValidationError reports one or more property values that failed a
// StructValidator's rules. It is structurally compatible with
// typegraph.ValidationError and is wrapped into one by the Store.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("typegraph: validation failed for %v: %s", e.Fields, e.Message)
}
