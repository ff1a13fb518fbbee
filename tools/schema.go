package tools

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	enumeratedType = reflect.TypeOf((*Enumerated)(nil)).Elem()
	timeType       = reflect.TypeOf(time.Time{})
	byteSliceType  = reflect.TypeOf([]byte(nil))
)

// Param is one entry of a tool's binding plan: the schema-visible facts
// about a method parameter plus its concrete runtime type.
type Param struct {
	Name     string
	Type     reflect.Type
	Required bool
	Source   Source
	Default  []byte
}

// inputSchema turns a method's raw parameter metadata into the tool's
// object schema and its ordered binding plan. It is a pure function of the
// metadata; the registry builder caches its result per tool.
func inputSchema(md MethodMetadata) (*jsonschema.Schema, []Param, error) {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
	plan := make([]Param, 0, len(md.Params))
	segments := routeSegments(md.Route)

	for _, pm := range md.Params {
		if pm.Name == "" {
			return nil, nil, fmt.Errorf("method %s: parameter with empty name", md.MethodName)
		}
		if _, dup := schema.Properties[pm.Name]; dup {
			return nil, nil, fmt.Errorf("method %s: duplicate parameter %q", md.MethodName, pm.Name)
		}

		ps, err := typeSchema(pm.Type, map[reflect.Type]bool{})
		if err != nil {
			return nil, nil, fmt.Errorf("method %s, parameter %q: %w", md.MethodName, pm.Name, err)
		}
		ps.Description = pm.Description
		if pm.Format != "" {
			ps.Format = pm.Format
		}
		if len(pm.Default) > 0 {
			ps.Default = pm.Default
		}
		schema.Properties[pm.Name] = ps

		required := !pm.Optional && len(pm.Default) == 0
		if required {
			schema.Required = append(schema.Required, pm.Name)
		}
		plan = append(plan, Param{
			Name:     pm.Name,
			Type:     pm.Type,
			Required: required,
			Source:   inferSource(pm, segments),
			Default:  pm.Default,
		})
	}
	return schema, plan, nil
}

// inferSource applies the binding-source policy: an explicit hint wins,
// then a name match against a route template segment, then the type
// default (primitives from the query string, objects from the body).
func inferSource(pm ParameterMetadata, routeSegments map[string]bool) Source {
	if pm.SourceHint != SourceUnspecified {
		return pm.SourceHint
	}
	if routeSegments[pm.Name] {
		return SourceRoute
	}
	if isComplex(pm.Type) {
		return SourceBody
	}
	return SourceQuery
}

// routeSegments extracts the {segment} names from a route template.
// Constraints after a colon ("{id:int}") are ignored.
func routeSegments(route string) map[string]bool {
	segments := map[string]bool{}
	for {
		open := strings.IndexByte(route, '{')
		if open < 0 {
			return segments
		}
		close := strings.IndexByte(route[open:], '}')
		if close < 0 {
			return segments
		}
		name := route[open+1 : open+close]
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}
		if name != "" {
			segments[name] = true
		}
		route = route[open+close+1:]
	}
}

// typeSchema derives a JSON Schema for a Go type, recursively. The
// expanding set holds the struct types on the active recursion path; a
// type met again while still expanding is emitted as a bare object leaf,
// which bounds the schema for self- and mutually-referencing types.
func typeSchema(t reflect.Type, expanding map[reflect.Type]bool) (*jsonschema.Schema, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if values := enumValuesOf(t); values != nil {
		return enumSchema(t, values)
	}

	switch t.Kind() {
	case reflect.Bool:
		return &jsonschema.Schema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &jsonschema.Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &jsonschema.Schema{Type: "number"}, nil
	case reflect.String:
		return &jsonschema.Schema{Type: "string"}, nil
	case reflect.Slice, reflect.Array:
		if t == byteSliceType {
			return &jsonschema.Schema{Type: "string", Format: "byte"}, nil
		}
		items, err := typeSchema(t.Elem(), expanding)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", t.Key())
		}
		values, err := typeSchema(t.Elem(), expanding)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "object", AdditionalProperties: values}, nil
	case reflect.Interface:
		// Accepts any JSON value.
		return &jsonschema.Schema{}, nil
	case reflect.Struct:
		return structSchema(t, expanding)
	default:
		return nil, fmt.Errorf("unsupported parameter type %s", t)
	}
}

func structSchema(t reflect.Type, expanding map[reflect.Type]bool) (*jsonschema.Schema, error) {
	if t == timeType {
		return &jsonschema.Schema{Type: "string", Format: "date-time"}, nil
	}
	if expanding[t] {
		// Cycle guard: stop expanding, leave a bounded leaf.
		return &jsonschema.Schema{Type: "object"}, nil
	}
	expanding[t] = true
	defer delete(expanding, t)

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
	for _, f := range visibleFields(t) {
		fs, err := typeSchema(f.typ, expanding)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.name, err)
		}
		schema.Properties[f.name] = fs
		if f.required {
			schema.Required = append(schema.Required, f.name)
		}
	}
	return schema, nil
}

func enumSchema(t reflect.Type, values []EnumValue) (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{}
	switch t.Kind() {
	case reflect.String:
		schema.Type = "string"
		for _, v := range values {
			schema.Enum = append(schema.Enum, v.Name)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema.Type = "integer"
		for _, v := range values {
			schema.Enum = append(schema.Enum, v.Value)
		}
	default:
		return nil, fmt.Errorf("enumerated type %s must have a string or integer base", t)
	}
	return schema, nil
}

// enumValuesOf returns the declared values of an enumerated type, or nil.
func enumValuesOf(t reflect.Type) []EnumValue {
	if t.Implements(enumeratedType) {
		return reflect.Zero(t).Interface().(Enumerated).EnumValues()
	}
	if reflect.PointerTo(t).Implements(enumeratedType) {
		return reflect.New(t).Interface().(Enumerated).EnumValues()
	}
	return nil
}

// fieldInfo describes one schema-visible struct property.
type fieldInfo struct {
	name     string
	index    []int
	typ      reflect.Type
	required bool
}

// visibleFields flattens a struct's properties including those promoted
// from embedded ("base") structs. Name collisions resolve by promotion
// depth, matching Go's own field promotion and encoding/json: the
// shallowest declaration wins regardless of walk order, and two fields at
// the same depth are ambiguous and both dropped. An embedded type already
// on the active walk path is skipped, so self-embedding terminates.
// Property names come from the json tag, or the field name with its first
// letter lowered.
func visibleFields(t reflect.Type) []fieldInfo {
	var out []fieldInfo
	byName := map[string]int{}
	ambiguous := map[string]int{} // name -> depth of the dropped pair

	var walk func(t reflect.Type, index []int, seen map[reflect.Type]bool)
	walk = func(t reflect.Type, index []int, seen map[reflect.Type]bool) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			fi := append(append([]int{}, index...), i)

			if f.Anonymous && f.Tag.Get("json") == "" {
				ft := f.Type
				for ft.Kind() == reflect.Ptr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct && !isWellKnownScalar(ft) {
					if seen[ft] {
						continue
					}
					seen[ft] = true
					walk(ft, fi, seen)
					delete(seen, ft)
					continue
				}
			}
			if !f.IsExported() {
				continue
			}

			name, omitempty, skip := jsonName(f)
			if skip {
				continue
			}
			if d, bad := ambiguous[name]; bad {
				if len(fi) >= d {
					continue
				}
				// A shallower declaration beats the dropped pair.
				delete(ambiguous, name)
			}
			info := fieldInfo{
				name:     name,
				index:    fi,
				typ:      f.Type,
				required: f.Type.Kind() != reflect.Ptr && !omitempty,
			}
			if at, ok := byName[name]; ok {
				cur := out[at]
				switch {
				case cur.name == "" || len(fi) < len(cur.index):
					// Shallower declaration shadows the promoted one; the
					// overridden slot keeps its position.
					out[at] = info
				case len(fi) == len(cur.index):
					ambiguous[name] = len(fi)
					out[at] = fieldInfo{}
				}
				continue
			}
			byName[name] = len(out)
			out = append(out, info)
		}
	}
	walk(t, nil, map[reflect.Type]bool{t: true})

	kept := out[:0]
	for _, f := range out {
		if f.name != "" {
			kept = append(kept, f)
		}
	}
	return kept
}

func jsonName(f reflect.StructField) (name string, omitempty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	if name == "" {
		name = lowerFirst(f.Name)
	}
	return name, omitempty, false
}

// isWellKnownScalar reports struct types that schematize as scalars.
func isWellKnownScalar(t reflect.Type) bool {
	return t == timeType
}
