package tools

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// BindErrorKind classifies a binding failure.
type BindErrorKind string

const (
	MissingRequired BindErrorKind = "missing_required"
	TypeMismatch    BindErrorKind = "type_mismatch"
	EnumViolation   BindErrorKind = "enum_violation"
)

// BindError describes a binding failure precisely enough for a caller to
// fix the request: the parameter's full path ("request.name", "tags[2]"),
// the expected type, and the offending value.
type BindError struct {
	Kind     BindErrorKind
	Param    string
	Expected string
	Value    any
}

var _ error = &BindError{}

func (e *BindError) Error() string {
	switch e.Kind {
	case MissingRequired:
		return fmt.Sprintf("missing required parameter %q", e.Param)
	case EnumViolation:
		return fmt.Sprintf("parameter %q: value %v is not one of the allowed %s values", e.Param, e.Value, e.Expected)
	default:
		return fmt.Sprintf("parameter %q: cannot convert %v to %s", e.Param, e.Value, e.Expected)
	}
}

// Data renders the failure as a structured JSON-RPC error data payload.
func (e *BindError) Data() map[string]any {
	data := map[string]any{
		"kind":      string(e.Kind),
		"parameter": e.Param,
	}
	if e.Expected != "" {
		data["expected"] = e.Expected
	}
	if e.Kind != MissingRequired {
		data["value"] = e.Value
	}
	return data
}

func missingParam(path string, expected reflect.Type) *BindError {
	return &BindError{Kind: MissingRequired, Param: path, Expected: typeName(expected)}
}

func mismatch(path string, expected string, value any) *BindError {
	return &BindError{Kind: TypeMismatch, Param: path, Expected: expected, Value: value}
}

// Bind converts a raw arguments object into concrete call arguments per the
// tool's binding plan, mirroring the host framework's model binding.
// Argument names match declared parameter names exactly (case-sensitive);
// this is part of the wire contract. Unknown arguments are ignored.
//
// The returned values follow the plan's order and do not include the
// receiver or context; the invoker supplies those.
func Bind(tool RegisteredTool, args map[string]any) ([]reflect.Value, error) {
	in := make([]reflect.Value, 0, len(tool.Params))
	for _, p := range tool.Params {
		raw, ok := args[p.Name]
		if !ok {
			if p.Required {
				return nil, missingParam(p.Name, p.Type)
			}
			v, err := defaultValue(p)
			if err != nil {
				return nil, err
			}
			in = append(in, v)
			continue
		}
		v, err := coerce(p.Name, raw, p.Type, p.Source.stringCarried())
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}
	return in, nil
}

// defaultValue materializes an absent optional parameter: the declared
// default if one exists, the type's zero value otherwise.
func defaultValue(p Param) (reflect.Value, error) {
	if len(p.Default) == 0 {
		return reflect.Zero(p.Type), nil
	}
	out := reflect.New(p.Type)
	if err := json.Unmarshal(p.Default, out.Interface()); err != nil {
		return reflect.Value{}, mismatch(p.Name, typeName(p.Type), string(p.Default))
	}
	return out.Elem(), nil
}

// coerce converts one raw JSON value to the target runtime type. stringly
// relaxes scalar parsing to accept string literals, matching how route and
// query values arrive in the originating framework.
func coerce(path string, raw any, t reflect.Type, stringly bool) (reflect.Value, error) {
	if t.Kind() == reflect.Ptr {
		if raw == nil {
			return reflect.Zero(t), nil
		}
		elem, err := coerce(path, raw, t.Elem(), stringly)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(elem)
		return out, nil
	}

	if values := enumValuesOf(t); values != nil {
		return coerceEnum(path, raw, t, values)
	}

	switch t.Kind() {
	case reflect.Interface:
		if raw == nil {
			return reflect.Zero(t), nil
		}
		rv := reflect.ValueOf(raw)
		if !rv.Type().AssignableTo(t) {
			return reflect.Value{}, mismatch(path, typeName(t), raw)
		}
		return rv, nil
	case reflect.Bool:
		return coerceBool(path, raw, t, stringly)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return coerceInt(path, raw, t, stringly)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return coerceUint(path, raw, t, stringly)
	case reflect.Float32, reflect.Float64:
		return coerceFloat(path, raw, t, stringly)
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, mismatch(path, "string", raw)
		}
		return reflect.ValueOf(s).Convert(t), nil
	case reflect.Slice, reflect.Array:
		return coerceArray(path, raw, t)
	case reflect.Map:
		return coerceMap(path, raw, t)
	case reflect.Struct:
		return coerceStruct(path, raw, t)
	default:
		return reflect.Value{}, mismatch(path, typeName(t), raw)
	}
}

func coerceBool(path string, raw any, t reflect.Type, stringly bool) (reflect.Value, error) {
	switch v := raw.(type) {
	case bool:
		return reflect.ValueOf(v).Convert(t), nil
	case string:
		if stringly {
			if b, err := strconv.ParseBool(v); err == nil {
				return reflect.ValueOf(b).Convert(t), nil
			}
		}
	}
	return reflect.Value{}, mismatch(path, "boolean", raw)
}

// asFloat normalizes the numeric representations a raw argument may take.
func asFloat(raw any, stringly bool) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		if stringly {
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		}
	}
	return 0, false
}

func coerceInt(path string, raw any, t reflect.Type, stringly bool) (reflect.Value, error) {
	f, ok := asFloat(raw, stringly)
	if !ok || f != math.Trunc(f) {
		return reflect.Value{}, mismatch(path, "integer", raw)
	}
	n := int64(f)
	out := reflect.New(t).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, mismatch(path, typeName(t), raw)
	}
	out.SetInt(n)
	return out, nil
}

func coerceUint(path string, raw any, t reflect.Type, stringly bool) (reflect.Value, error) {
	f, ok := asFloat(raw, stringly)
	if !ok || f != math.Trunc(f) || f < 0 {
		return reflect.Value{}, mismatch(path, "integer", raw)
	}
	n := uint64(f)
	out := reflect.New(t).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, mismatch(path, typeName(t), raw)
	}
	out.SetUint(n)
	return out, nil
}

func coerceFloat(path string, raw any, t reflect.Type, stringly bool) (reflect.Value, error) {
	f, ok := asFloat(raw, stringly)
	if !ok {
		return reflect.Value{}, mismatch(path, "number", raw)
	}
	out := reflect.New(t).Elem()
	if out.OverflowFloat(f) {
		return reflect.Value{}, mismatch(path, typeName(t), raw)
	}
	out.SetFloat(f)
	return out, nil
}

func coerceEnum(path string, raw any, t reflect.Type, values []EnumValue) (reflect.Value, error) {
	match := func(ev EnumValue) reflect.Value {
		return reflect.ValueOf(ev.Value).Convert(t)
	}
	switch v := raw.(type) {
	case string:
		for _, ev := range values {
			if ev.Name == v || fmt.Sprintf("%v", ev.Value) == v {
				return match(ev), nil
			}
		}
	default:
		if f, ok := asFloat(raw, false); ok {
			for _, ev := range values {
				if ef, ok := asFloat(ev.Value, false); ok && ef == f {
					return match(ev), nil
				}
			}
			// Underlying values may be typed integers.
			for _, ev := range values {
				rv := reflect.ValueOf(ev.Value)
				if rv.CanInt() && float64(rv.Int()) == f {
					return match(ev), nil
				}
			}
		}
	}
	return reflect.Value{}, &BindError{Kind: EnumViolation, Param: path, Expected: typeName(t), Value: raw}
}

func coerceArray(path string, raw any, t reflect.Type) (reflect.Value, error) {
	if t == byteSliceType {
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, mismatch(path, "base64 string", raw)
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return reflect.Value{}, mismatch(path, "base64 string", raw)
		}
		return reflect.ValueOf(data), nil
	}

	items, ok := raw.([]any)
	if !ok {
		return reflect.Value{}, mismatch(path, "array", raw)
	}
	if t.Kind() == reflect.Array && t.Len() != len(items) {
		return reflect.Value{}, mismatch(path, fmt.Sprintf("array of length %d", t.Len()), raw)
	}

	var out reflect.Value
	if t.Kind() == reflect.Slice {
		out = reflect.MakeSlice(t, len(items), len(items))
	} else {
		out = reflect.New(t).Elem()
	}
	for i, item := range items {
		v, err := coerce(fmt.Sprintf("%s[%d]", path, i), item, t.Elem(), false)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

func coerceMap(path string, raw any, t reflect.Type) (reflect.Value, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return reflect.Value{}, mismatch(path, "object", raw)
	}
	out := reflect.MakeMapWithSize(t, len(obj))
	for k, item := range obj {
		v, err := coerce(path+"."+k, item, t.Elem(), false)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), v)
	}
	return out, nil
}

// coerceStruct binds an object onto the concrete struct type, walking the
// declared properties (including promoted ones from embedded structs) so
// nested failures carry the full dotted path. Required-ness of properties
// follows the schema: non-pointer fields without omitempty.
func coerceStruct(path string, raw any, t reflect.Type) (reflect.Value, error) {
	if t == timeType {
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, mismatch(path, "RFC 3339 timestamp", raw)
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return reflect.Value{}, mismatch(path, "RFC 3339 timestamp", raw)
		}
		return reflect.ValueOf(ts), nil
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return reflect.Value{}, mismatch(path, "object", raw)
	}

	out := reflect.New(t).Elem()
	for _, f := range visibleFields(t) {
		fieldPath := path + "." + f.name
		rawField, present := obj[f.name]
		if !present {
			if f.required {
				return reflect.Value{}, missingParam(fieldPath, f.typ)
			}
			continue
		}
		v, err := coerce(fieldPath, rawField, f.typ, false)
		if err != nil {
			return reflect.Value{}, err
		}
		fieldByIndexAlloc(out, f.index).Set(v)
	}
	return out, nil
}

// fieldByIndexAlloc is FieldByIndex with nil embedded pointers allocated
// along the way.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Ptr {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
