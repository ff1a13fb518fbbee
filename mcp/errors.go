package mcp

import (
	"errors"

	"github.com/grparry/mcpinvoke/jsonrpc"
	"github.com/grparry/mcpinvoke/tools"
)

// errorResponse classifies an invocation failure into the protocol's error
// taxonomy. Binding failures become invalid-params errors carrying the
// parameter path and offending value. Business-level failures reported by
// the host operation surface as a tool result with isError set, per the
// protocol's content schema, not as a JSON-RPC error. Everything else is an
// internal error.
func errorResponse(id interface{}, err error) jsonrpc.Response {
	var bindErr *tools.BindError
	if errors.As(err, &bindErr) {
		return jsonrpc.NewResponse(id, nil, jsonrpc.NewDetailedError(jsonrpc.ErrInvalidParams, bindErr.Error(), bindErr.Data()))
	}

	var execErr *tools.ExecutionError
	if errors.As(err, &execErr) {
		return jsonrpc.NewResponse(id, ToolCallResponse{
			Content: []Content{NewTextContent(execErr.Err.Error())},
			IsError: true,
		}, nil)
	}

	return jsonrpc.NewResponse(id, nil, jsonrpc.NewDetailedError(jsonrpc.ErrInternal, err.Error(), nil))
}
