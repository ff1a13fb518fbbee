package tools

import (
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// RegisteredTool binds a tool definition to its executable identity. It is
// a plain data record: the method is located once at registry build, not
// re-resolved per request.
type RegisteredTool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	Params       []Param
	HandlerID    string
	MethodName   string
	Func         reflect.Value
	Static       bool
	WantsContext bool
}

// Registry is the immutable name → tool snapshot used for discovery
// responses and invocation lookup. It is built exactly once; concurrent
// reads after that need no synchronization.
type Registry struct {
	tools  []RegisteredTool
	byName map[string]int
}

type builder struct {
	filter func(toolName, handlerID string) bool
}

// BuildOption customizes registry construction.
type BuildOption func(*builder)

// WithToolFilter drops tools the filter rejects, e.g. from a disabled-tools
// configuration list.
func WithToolFilter(filter func(toolName, handlerID string) bool) BuildOption {
	return func(b *builder) { b.filter = filter }
}

// Build runs discovery once and produces the registry: schema generation
// per method, name uniqueness enforcement, and stable ordering (discovery
// order). A duplicate tool name is a configuration error and fails the
// build.
func Build(d Discoverer, opts ...BuildOption) (*Registry, error) {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	methods, err := d.Discover()
	if err != nil {
		return nil, fmt.Errorf("discovering tools: %w", err)
	}

	r := &Registry{byName: make(map[string]int, len(methods))}
	for _, md := range methods {
		name := toolName(md)
		if b.filter != nil && !b.filter(name, md.HandlerID) {
			continue
		}

		schema, plan, err := inputSchema(md)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}

		r.byName[name] = len(r.tools)
		r.tools = append(r.tools, RegisteredTool{
			Name:         name,
			Description:  md.Description,
			InputSchema:  schema,
			Params:       plan,
			HandlerID:    md.HandlerID,
			MethodName:   md.MethodName,
			Func:         md.Func,
			Static:       md.Static,
			WantsContext: md.WantsContext,
		})
	}
	return r, nil
}

func toolName(md MethodMetadata) string {
	if md.HandlerID == "" {
		return md.MethodName
	}
	return md.HandlerID + "_" + md.MethodName
}

// List returns the registered tools in registry-construction order. The
// order is stable across calls.
func (r *Registry) List() []RegisteredTool {
	out := make([]RegisteredTool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (RegisteredTool, bool) {
	i, ok := r.byName[name]
	if !ok {
		return RegisteredTool{}, false
	}
	return r.tools[i], true
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
