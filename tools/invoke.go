package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ExecutionError reports a business-level failure from the host method: the
// call completed, but the operation itself reported an error (directly or
// through a result envelope).
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// InternalError reports a fault in or around the host call: a panic, a
// resolver failure, or an unserializable result.
type InternalError struct {
	Tool string
	Err  error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("tool %s: internal error: %v", e.Tool, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Invoker executes registered tools: it binds arguments, resolves the
// handler instance when needed, performs the call, and unwraps any result
// envelope.
type Invoker struct {
	resolver HandlerResolver
}

// NewInvoker creates an Invoker that resolves non-static handlers through
// the given resolver.
func NewInvoker(resolver HandlerResolver) *Invoker {
	return &Invoker{resolver: resolver}
}

// Invoke calls the tool with the raw arguments object and returns the
// JSON-serialized payload. The context is injected into context-taking
// methods, so transport cancellation propagates into cooperative host
// calls.
func (inv *Invoker) Invoke(ctx context.Context, tool RegisteredTool, args map[string]any) (json.RawMessage, error) {
	bound, err := Bind(tool, args)
	if err != nil {
		return nil, err
	}

	in := make([]reflect.Value, 0, len(bound)+2)
	if !tool.Static {
		if inv.resolver == nil {
			return nil, &InternalError{Tool: tool.Name, Err: errors.New("no handler resolver configured")}
		}
		instance, err := inv.resolver.Resolve(ctx, tool.HandlerID)
		if err != nil {
			return nil, &InternalError{Tool: tool.Name, Err: fmt.Errorf("resolving handler %s: %w", tool.HandlerID, err)}
		}
		rv := reflect.ValueOf(instance)
		if !rv.Type().AssignableTo(tool.Func.Type().In(0)) {
			return nil, &InternalError{Tool: tool.Name, Err: fmt.Errorf("resolved %s for handler %s, want %s", rv.Type(), tool.HandlerID, tool.Func.Type().In(0))}
		}
		in = append(in, rv)
	}
	if tool.WantsContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	in = append(in, bound...)

	out, err := safeCall(tool.Func, in)
	if err != nil {
		return nil, &InternalError{Tool: tool.Name, Err: err}
	}

	payload, err := unpack(tool, out)
	if err != nil {
		return nil, err
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, &InternalError{Tool: tool.Name, Err: fmt.Errorf("serializing result: %w", err)}
	}
	return text, nil
}

// safeCall performs the reflective call, converting a panic in the host
// method into an error instead of tearing down the request's goroutine.
func safeCall(fn reflect.Value, in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during call: %v", r)
		}
	}()
	return fn.Call(in), nil
}

// unpack extracts the payload from the call's return values: a trailing
// error is an execution failure, and ResultEnvelope payloads are unwrapped.
// Errors that are recognizably parameter-related keep their binding
// classification.
func unpack(tool RegisteredTool, out []reflect.Value) (any, error) {
	var payload any
	for i, v := range out {
		if i == len(out)-1 && v.Type().Implements(errorType) {
			if v.IsNil() {
				continue
			}
			callErr := v.Interface().(error)
			var bindErr *BindError
			if errors.As(callErr, &bindErr) {
				return nil, bindErr
			}
			return nil, &ExecutionError{Tool: tool.Name, Err: callErr}
		}
		payload = v.Interface()
	}

	if env, ok := payload.(ResultEnvelope); ok {
		inner, err := env.Unwrap()
		if err != nil {
			return nil, &ExecutionError{Tool: tool.Name, Err: err}
		}
		payload = inner
	}
	return payload, nil
}
