package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grparry/mcpinvoke/jsonrpc"
	"github.com/grparry/mcpinvoke/tools"
)

type CalcService struct{}

func (CalcService) Add(a, b int) int { return a + b }

func (CalcService) Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

type CreatePetRequest struct {
	Name string `json:"name"`
	Age  int    `json:"age,omitempty"`
}

type PetService struct{}

func (PetService) Create(req CreatePetRequest) CreatePetRequest { return req }

func testHandlers() *tools.HandlerSet {
	hs := tools.NewHandlerSet()
	hs.Register(CalcService{},
		tools.WithParamNames("Add", "a", "b"),
		tools.WithParamNames("Divide", "a", "b"),
		tools.WithMethodDescription("Add", "Add two integers"),
	)
	hs.Register(PetService{})
	return hs
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(
		WithHandlers(testHandlers()),
		WithServerInfo("test-server", "1.2.3"),
	)
	require.NoError(t, err)
	return server
}

func request(t *testing.T, method string, params string, id any) jsonrpc.Request {
	t.Helper()
	var raw json.RawMessage
	if params != "" {
		raw = json.RawMessage(params)
	}
	return jsonrpc.NewRequest(method, raw, id)
}

func TestHandleInitialize(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "initialize", `{"protocolVersion":"2025-06-18"}`, 1))
	require.NotNil(t, response)
	require.Nil(t, response.Error)

	result, ok := response.Result.(InitializeResponse)
	require.True(t, ok)
	assert.Equal(t, Version, result.ProtocolVersion)
	assert.Equal(t, "test-server", result.ServerInfo.Name)
	assert.Equal(t, "1.2.3", result.ServerInfo.Version)
	require.NotNil(t, result.Capabilities.Tools)
}

func TestHandleInitializedNotification(t *testing.T) {
	server := setupTestServer(t)

	// No id means notification: no response frame at all.
	response := server.Handle(context.Background(), request(t, "notifications/initialized", "", nil))
	assert.Nil(t, response)

	// With an id, the acknowledgment is returned.
	response = server.Handle(context.Background(), request(t, "notifications/initialized", "", 5))
	require.NotNil(t, response)
	assert.Nil(t, response.Error)
	assert.True(t, response.ID.Equal(5))
}

func TestHandlePing(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "ping", "", 9))
	require.NotNil(t, response)
	assert.Nil(t, response.Error)
}

func TestHandleInvalidEnvelope(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name string
		req  jsonrpc.Request
	}{
		{"missing jsonrpc", jsonrpc.Request{Method: "tools/list", Id: 1}},
		{"missing method", jsonrpc.Request{Version: "2.0", Id: 1}},
		{"wrong version", jsonrpc.Request{Version: "1.0", Method: "tools/list", Id: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := server.Handle(context.Background(), tt.req)
			require.NotNil(t, response)
			require.NotNil(t, response.Error)
			assert.Equal(t, jsonrpc.ErrInvalidRequest, response.Error.Code)
		})
	}
}

func TestHandleUnknownMethod(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "resources/list", "", 2))
	require.NotNil(t, response)
	require.NotNil(t, response.Error)
	assert.Equal(t, jsonrpc.ErrMethodNotFound, response.Error.Code)
}

func TestHandleToolsList(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "tools/list", "", 3))
	require.NotNil(t, response)
	require.Nil(t, response.Error)

	result, ok := response.Result.(ToolsListResponse)
	require.True(t, ok)
	require.Len(t, result.Tools, 3)
	assert.Equal(t, "Calc_Add", result.Tools[0].Name)
	assert.Equal(t, "Add two integers", result.Tools[0].Description)
	require.NotNil(t, result.Tools[0].InputSchema)
	assert.ElementsMatch(t, []string{"a", "b"}, result.Tools[0].InputSchema.Required)

	// Deterministic and stable across calls.
	again := server.Handle(context.Background(), request(t, "tools/list", "", 4))
	assert.Equal(t, result, again.Result)
}

func TestHandleToolsCall(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "tools/call", `{"name":"Calc_Add","arguments":{"a":10,"b":5}}`, 5))
	require.NotNil(t, response)
	require.Nil(t, response.Error)

	result, ok := response.Result.(ToolCallResponse)
	require.True(t, ok)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Equal(t, "15", result.Content[0].Text)
}

func TestHandleToolsCallMissingParameter(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "tools/call", `{"name":"Calc_Add","arguments":{"a":10}}`, 6))
	require.NotNil(t, response)
	require.NotNil(t, response.Error)
	assert.Equal(t, jsonrpc.ErrInvalidParams, response.Error.Code)
	assert.Contains(t, response.Error.Message, `"b"`)
}

func TestHandleToolsCallNestedMissingParameter(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "tools/call", `{"name":"Pet_Create","arguments":{"request":{"age":3}}}`, 7))
	require.NotNil(t, response)
	require.NotNil(t, response.Error)
	assert.Equal(t, jsonrpc.ErrInvalidParams, response.Error.Code)
	assert.Contains(t, response.Error.Message, "request.name")
}

func TestHandleToolsCallUnknownTool(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "tools/call", `{"name":"Calc_Sub","arguments":{}}`, 8))
	require.NotNil(t, response)
	require.NotNil(t, response.Error)
	assert.Equal(t, jsonrpc.ErrMethodNotFound, response.Error.Code)
	assert.Contains(t, response.Error.Message, "Calc_Sub")
}

func TestHandleToolsCallExecutionFailure(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "tools/call", `{"name":"Calc_Divide","arguments":{"a":1,"b":0}}`, 9))
	require.NotNil(t, response)
	require.Nil(t, response.Error)

	result, ok := response.Result.(ToolCallResponse)
	require.True(t, ok)
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "division by zero")
}

func TestHandleToolsCallBadParams(t *testing.T) {
	server := setupTestServer(t)

	response := server.Handle(context.Background(), request(t, "tools/call", "", 10))
	require.NotNil(t, response)
	require.NotNil(t, response.Error)
	assert.Equal(t, jsonrpc.ErrInvalidParams, response.Error.Code)
}

func TestNewServerRequiresRegistry(t *testing.T) {
	_, err := NewServer()
	assert.Error(t, err)
}

func TestNewServerHandlerSetErrorsSurface(t *testing.T) {
	hs := tools.NewHandlerSet()
	hs.Register(CalcService{}) // unnamed multi-parameter methods

	_, err := NewServer(WithHandlers(hs))
	assert.Error(t, err)
}

func TestToolFilterDisablesTools(t *testing.T) {
	server, err := NewServer(WithHandlers(testHandlers(), tools.WithToolFilter(func(name, handlerID string) bool {
		return name != "Calc_Divide"
	})))
	require.NoError(t, err)

	response := server.Handle(context.Background(), request(t, "tools/list", "", 1))
	result := response.Result.(ToolsListResponse)
	for _, tool := range result.Tools {
		assert.NotEqual(t, "Calc_Divide", tool.Name)
	}
}
