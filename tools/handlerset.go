package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// HandlerSet is a registration-based Discoverer. Go reflection cannot
// recover parameter names, so handlers are registered together with the
// metadata a host framework would otherwise supply: parameter names, route
// templates, source hints, descriptions, and defaults.
//
// HandlerSet also acts as the default HandlerResolver, handing back the
// instance captured at registration. Registration must finish before the
// registry is built; a HandlerSet is not safe for concurrent mutation.
type HandlerSet struct {
	methods   []MethodMetadata
	instances map[string]any
	errs      []error
}

// NewHandlerSet creates an empty HandlerSet.
func NewHandlerSet() *HandlerSet {
	return &HandlerSet{instances: make(map[string]any)}
}

// registration accumulates per-handler options.
type registration struct {
	name         string
	route        string
	description  string
	methodRoutes map[string]string
	methodDescs  map[string]string
	paramNames   map[string][]string
	paramMeta    map[string]map[string]*paramOverride
	include      map[string]bool
	exclude      map[string]bool
}

type paramOverride struct {
	source      Source
	optional    bool
	description string
	format      string
	defaultJSON json.RawMessage
	defaultErr  error
}

// RegisterOption customizes a Register or RegisterFunc call.
type RegisterOption func(*registration)

// WithName overrides the handler name used in tool names.
func WithName(name string) RegisterOption {
	return func(r *registration) { r.name = name }
}

// WithRoute sets the route template for all of the handler's methods.
// Parameters whose names match a {segment} bind from the route.
func WithRoute(route string) RegisterOption {
	return func(r *registration) { r.route = route }
}

// WithMethodRoute sets the route template for a single method, overriding
// WithRoute.
func WithMethodRoute(method, route string) RegisterOption {
	return func(r *registration) { r.methodRoutes[method] = route }
}

// WithDescription sets the description applied to every method that has no
// method-specific description.
func WithDescription(desc string) RegisterOption {
	return func(r *registration) { r.description = desc }
}

// WithMethodDescription sets the description of a single method.
func WithMethodDescription(method, desc string) RegisterOption {
	return func(r *registration) { r.methodDescs[method] = desc }
}

// WithParamNames declares the parameter names of a method, in declaration
// order, excluding any leading context.Context. Methods with more than one
// schema-visible parameter must declare names.
func WithParamNames(method string, names ...string) RegisterOption {
	return func(r *registration) { r.paramNames[method] = names }
}

// WithParamSource sets an explicit binding source for one parameter. An
// explicit hint takes priority over route matching and type-based
// inference.
func WithParamSource(method, param string, source Source) RegisterOption {
	return func(r *registration) { r.override(method, param).source = source }
}

// WithOptionalParam marks one parameter as omittable.
func WithOptionalParam(method, param string) RegisterOption {
	return func(r *registration) { r.override(method, param).optional = true }
}

// WithParamDescription sets one parameter's description.
func WithParamDescription(method, param, desc string) RegisterOption {
	return func(r *registration) { r.override(method, param).description = desc }
}

// WithParamFormat sets one parameter's JSON Schema format annotation.
func WithParamFormat(method, param, format string) RegisterOption {
	return func(r *registration) { r.override(method, param).format = format }
}

// WithParamDefault declares a default substituted when the argument is
// absent. The parameter becomes optional.
func WithParamDefault(method, param string, value any) RegisterOption {
	return func(r *registration) {
		o := r.override(method, param)
		o.optional = true
		data, err := json.Marshal(value)
		if err != nil {
			o.defaultErr = fmt.Errorf("default for %s.%s: %w", method, param, err)
			return
		}
		o.defaultJSON = data
	}
}

// WithMethods restricts registration to the named methods.
func WithMethods(names ...string) RegisterOption {
	return func(r *registration) {
		r.include = make(map[string]bool, len(names))
		for _, n := range names {
			r.include[n] = true
		}
	}
}

// WithoutMethods excludes the named methods from registration.
func WithoutMethods(names ...string) RegisterOption {
	return func(r *registration) {
		for _, n := range names {
			r.exclude[n] = true
		}
	}
}

func (r *registration) override(method, param string) *paramOverride {
	m, ok := r.paramMeta[method]
	if !ok {
		m = make(map[string]*paramOverride)
		r.paramMeta[method] = m
	}
	o, ok := m[param]
	if !ok {
		o = &paramOverride{}
		m[param] = o
	}
	return o
}

func newRegistration(opts []RegisterOption) *registration {
	r := &registration{
		methodRoutes: make(map[string]string),
		methodDescs:  make(map[string]string),
		paramNames:   make(map[string][]string),
		paramMeta:    make(map[string]map[string]*paramOverride),
		exclude:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register scans the handler's exported methods and records one tool per
// method, named <Handler>_<Method>. A trailing Service, Controller, or
// Handler suffix is trimmed from the type name. Registration problems are
// collected and surfaced by Discover, making them fatal at registry build.
func (hs *HandlerSet) Register(handler any, opts ...RegisterOption) *HandlerSet {
	reg := newRegistration(opts)

	if handler == nil {
		hs.errs = append(hs.errs, fmt.Errorf("register: nil handler"))
		return hs
	}
	hv := reflect.ValueOf(handler)
	ht := hv.Type()
	if ht.Kind() == reflect.Ptr && hv.IsNil() {
		hs.errs = append(hs.errs, fmt.Errorf("register: nil handler"))
		return hs
	}

	name := reg.name
	if name == "" {
		name = handlerName(ht)
	}
	if _, dup := hs.instances[name]; dup {
		hs.errs = append(hs.errs, fmt.Errorf("register: duplicate handler %q", name))
		return hs
	}
	hs.instances[name] = handler

	seen := 0
	for i := 0; i < ht.NumMethod(); i++ {
		m := ht.Method(i)
		if !m.IsExported() {
			continue
		}
		if reg.include != nil && !reg.include[m.Name] {
			continue
		}
		if reg.exclude[m.Name] {
			continue
		}

		md, err := hs.describeMethod(name, m, reg)
		if err != nil {
			hs.errs = append(hs.errs, err)
			continue
		}
		hs.methods = append(hs.methods, md)
		seen++
	}
	if seen == 0 {
		hs.errs = append(hs.errs, fmt.Errorf("register %s: no exported methods", name))
	}
	return hs
}

// RegisterFunc records a static tool backed by a plain function. Parameter
// names are declared with WithParamNames(name, ...).
func (hs *HandlerSet) RegisterFunc(name string, fn any, opts ...RegisterOption) *HandlerSet {
	reg := newRegistration(opts)

	fv := reflect.ValueOf(fn)
	if fn == nil || fv.Kind() != reflect.Func {
		hs.errs = append(hs.errs, fmt.Errorf("register func %s: not a function", name))
		return hs
	}

	md := MethodMetadata{
		MethodName:  name,
		Func:        fv,
		Static:      true,
		Route:       reg.routeFor(name),
		Description: reg.descFor(name),
	}
	if err := hs.describeSignature(&md, fv.Type(), 0, name, reg); err != nil {
		hs.errs = append(hs.errs, err)
		return hs
	}
	hs.methods = append(hs.methods, md)
	return hs
}

func (hs *HandlerSet) describeMethod(handlerID string, m reflect.Method, reg *registration) (MethodMetadata, error) {
	md := MethodMetadata{
		HandlerID:   handlerID,
		MethodName:  m.Name,
		Func:        m.Func,
		Route:       reg.routeFor(m.Name),
		Description: reg.descFor(m.Name),
	}
	// m.Func's first input is the receiver.
	if err := hs.describeSignature(&md, m.Func.Type(), 1, m.Name, reg); err != nil {
		return MethodMetadata{}, fmt.Errorf("register %s.%s: %w", handlerID, m.Name, err)
	}
	return md, nil
}

func (hs *HandlerSet) describeSignature(md *MethodMetadata, ft reflect.Type, firstIn int, methodKey string, reg *registration) error {
	switch ft.NumOut() {
	case 0, 1:
	case 2:
		if !ft.Out(1).Implements(errorType) {
			return fmt.Errorf("second return value must be error, got %s", ft.Out(1))
		}
	default:
		return fmt.Errorf("at most two return values are supported, got %d", ft.NumOut())
	}
	if ft.IsVariadic() {
		return fmt.Errorf("variadic methods are not supported")
	}

	in := firstIn
	if in < ft.NumIn() && ft.In(in) == ctxType {
		md.WantsContext = true
		in++
	}

	names := reg.paramNames[methodKey]
	visible := ft.NumIn() - in
	switch {
	case len(names) == visible:
	case len(names) == 0 && visible == 0:
	case len(names) == 0 && visible == 1 && isComplex(ft.In(in)):
		// A single undeclared complex parameter binds the whole request
		// body; it is conventionally named "request".
		names = []string{"request"}
	default:
		return fmt.Errorf("declared %d parameter name(s) for %d parameter(s); use WithParamNames", len(names), visible)
	}

	for i := 0; i < visible; i++ {
		pt := ft.In(in + i)
		pm := ParameterMetadata{
			Name: names[i],
			Type: pt,
		}
		if o := reg.paramMeta[methodKey][pm.Name]; o != nil {
			if o.defaultErr != nil {
				return o.defaultErr
			}
			pm.SourceHint = o.source
			pm.Optional = o.optional
			pm.Description = o.description
			pm.Format = o.format
			pm.Default = o.defaultJSON
		}
		if pt.Kind() == reflect.Ptr {
			pm.Optional = true
		}
		md.Params = append(md.Params, pm)
	}
	return nil
}

func (r *registration) routeFor(method string) string {
	if rt, ok := r.methodRoutes[method]; ok {
		return rt
	}
	return r.route
}

func (r *registration) descFor(method string) string {
	if d, ok := r.methodDescs[method]; ok {
		return d
	}
	return r.description
}

// Discover implements Discoverer, returning the registered methods in
// registration order.
func (hs *HandlerSet) Discover() ([]MethodMetadata, error) {
	if len(hs.errs) > 0 {
		return nil, fmt.Errorf("handler registration: %w", joinErrors(hs.errs))
	}
	out := make([]MethodMetadata, len(hs.methods))
	copy(out, hs.methods)
	return out, nil
}

// Resolve implements HandlerResolver with the instances captured at
// registration time. Instances are shared across requests, so handlers
// registered here must be safe for concurrent use.
func (hs *HandlerSet) Resolve(_ context.Context, handlerID string) (any, error) {
	h, ok := hs.instances[handlerID]
	if !ok {
		return nil, fmt.Errorf("no handler registered as %q", handlerID)
	}
	return h, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d errors: %s", len(errs), strings.Join(msgs, "; "))
}

// handlerName derives the tool name prefix from the handler's type.
func handlerName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	for _, suffix := range []string{"Service", "Controller", "Handler"} {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != "" && trimmed != name {
			return trimmed
		}
	}
	return name
}

// isComplex reports whether a type schematizes as an object.
func isComplex(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		return !isWellKnownScalar(t)
	case reflect.Map:
		return true
	}
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
