// Package tools turns declared host methods into invocable MCP tools: it
// generates parameter schemas by reflection, builds an immutable registry,
// binds loosely-typed JSON arguments to concrete call arguments, and
// executes the underlying method.
package tools

import (
	"context"
	"encoding/json"
	"reflect"
)

// Source identifies where a bound parameter's value originates in the host
// framework's model binding (route segment, query string, request body,
// header, or form field). Over MCP all arguments travel in the same
// arguments object; the source is advertised so clients can mirror the
// host's semantics.
type Source string

const (
	SourceUnspecified Source = ""
	SourceRoute       Source = "route"
	SourceQuery       Source = "query"
	SourceBody        Source = "body"
	SourceHeader      Source = "header"
	SourceForm        Source = "form"
)

// stringCarried reports whether values from this source arrive as strings
// on the wire in the originating framework, which relaxes binding to accept
// stringified numbers and booleans.
func (s Source) stringCarried() bool {
	switch s {
	case SourceRoute, SourceQuery, SourceHeader, SourceForm:
		return true
	}
	return false
}

// ParameterMetadata is the raw description of a single method parameter as
// supplied by a Discoverer.
type ParameterMetadata struct {
	Name        string
	Type        reflect.Type
	Description string

	// SourceHint is an explicit binding-source annotation from the host
	// framework, if any. SourceUnspecified means the source is inferred.
	SourceHint Source

	// Optional marks the parameter as omittable. Pointer-typed parameters
	// and parameters with a Default are optional regardless.
	Optional bool

	// Default is the declared default value as raw JSON, substituted when
	// the argument is absent.
	Default json.RawMessage

	// Format is an optional JSON Schema format annotation.
	Format string
}

// MethodMetadata is the raw description of a discovered host method.
type MethodMetadata struct {
	// HandlerID identifies the owning handler for instance resolution.
	// Empty for static (free function) tools.
	HandlerID string

	// MethodName is the host method's name, used in the tool name.
	MethodName string

	// Func is the callable. For static tools it is the function itself;
	// for instance methods it is the unbound method (receiver first) and
	// the invoker supplies the resolved instance.
	Func reflect.Value

	// Route is the owning route template, e.g. "/api/pets/{id}". Parameter
	// names matching a template segment bind from the route.
	Route string

	Description string
	Params      []ParameterMetadata

	// Static indicates Func is called directly without resolving a
	// handler instance.
	Static bool

	// WantsContext indicates the first (non-receiver) parameter is a
	// context.Context that receives the request context. Context
	// parameters do not appear in Params.
	WantsContext bool
}

// Discoverer supplies the set of host methods to expose as tools. It is the
// narrow interface to whatever mechanism reads the host application's
// metadata; Discover is called once at registry build time.
type Discoverer interface {
	Discover() ([]MethodMetadata, error)
}

// HandlerResolver resolves a handler instance for a non-static tool. The
// returned instance is scoped to the request; resolvers that share
// instances across requests must make them safe for concurrent use.
type HandlerResolver interface {
	Resolve(ctx context.Context, handlerID string) (any, error)
}

// ResolverFunc adapts a function to the HandlerResolver interface.
type ResolverFunc func(ctx context.Context, handlerID string) (any, error)

func (f ResolverFunc) Resolve(ctx context.Context, handlerID string) (any, error) {
	return f(ctx, handlerID)
}

// ResultEnvelope is implemented by host return types that wrap a payload
// together with a success/failure status. The invoker unwraps the envelope:
// a non-nil error is surfaced as an execution failure, otherwise the inner
// payload becomes the tool result.
type ResultEnvelope interface {
	Unwrap() (any, error)
}

// EnumValue is one allowed value of an enumerated type: the literal name
// and the underlying value it stands for.
type EnumValue struct {
	Name  string
	Value any
}

// Enumerated is implemented by parameter types with a closed set of values.
// Schema generation emits the full literal set, and binding accepts either
// the literal name or the underlying value.
type Enumerated interface {
	EnumValues() []EnumValue
}
