// Package mcp implements a Model Context Protocol server over JSON-RPC 2.0
// for tools discovered from registered host methods.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/grparry/mcpinvoke/jsonrpc"
	"github.com/grparry/mcpinvoke/tools"
)

// Server is the request dispatcher: it routes protocol lifecycle methods
// and tool invocation over an immutable tool registry. A Server is safe for
// concurrent use; the only mutable state is per-request.
type Server struct {
	registry     *tools.Registry
	invoker      *tools.Invoker
	resolver     tools.HandlerResolver
	logger       *slog.Logger
	info         ServerInfo
	instructions string
}

// ServerOption configures a Server.
type ServerOption func(*Server) error

// WithRegistry sets the tool registry.
func WithRegistry(registry *tools.Registry) ServerOption {
	return func(s *Server) error {
		s.registry = registry
		return nil
	}
}

// WithResolver sets the handler resolver used for non-static tools.
func WithResolver(resolver tools.HandlerResolver) ServerOption {
	return func(s *Server) error {
		s.resolver = resolver
		return nil
	}
}

// WithHandlers builds the registry from a HandlerSet and uses the set as
// the handler resolver.
func WithHandlers(hs *tools.HandlerSet, buildOpts ...tools.BuildOption) ServerOption {
	return func(s *Server) error {
		registry, err := tools.Build(hs, buildOpts...)
		if err != nil {
			return err
		}
		s.registry = registry
		s.resolver = hs
		return nil
	}
}

// WithLogger sets the logger for server operations
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithServerInfo sets the identity advertised by initialize.
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) error {
		s.info = ServerInfo{Name: name, Version: version}
		return nil
	}
}

// WithInstructions sets the instructions string advertised by initialize.
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) error {
		s.instructions = instructions
		return nil
	}
}

// NewServer creates a new MCP server instance
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		info:   ServerInfo{Name: "mcpinvoke", Version: "dev"},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.registry == nil {
		return nil, fmt.Errorf("a tool registry is required")
	}
	s.invoker = tools.NewInvoker(s.resolver)
	return s, nil
}

var _ jsonrpc.Handler = (*Server)(nil)

// Handle processes a single JSON-RPC request and returns a response, or nil
// when the request is a notification and no frame may be sent.
func (s *Server) Handle(ctx context.Context, request jsonrpc.Request) *jsonrpc.Response {
	if !request.IsValid() {
		s.logger.Warn("invalid request envelope", "method", request.Method)
		return respond(request, jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidRequest, nil)))
	}

	s.logger.Debug("dispatching", "method", request.Method, "id", request.Id)

	switch request.Method {
	case "initialize":
		return respond(request, s.handleInitialize(request))
	case "notifications/initialized":
		// Pure acknowledgment; no effect on registry state.
		return respond(request, jsonrpc.NewResponse(request.Id, struct{}{}, nil))
	case "ping":
		return respond(request, jsonrpc.NewResponse(request.Id, struct{}{}, nil))
	case "tools/list":
		return respond(request, s.handleToolsList(request))
	case "tools/call":
		return respond(request, s.handleToolsCall(ctx, request))
	default:
		return respond(request, jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrMethodNotFound, nil)))
	}
}

// respond suppresses responses to notifications per JSON-RPC 2.0: a request
// without an id receives no frame at all, success or failure.
func respond(request jsonrpc.Request, response jsonrpc.Response) *jsonrpc.Response {
	if request.IsNotification() {
		return nil
	}
	return &response
}

func (s *Server) handleInitialize(request jsonrpc.Request) jsonrpc.Response {
	var params InitializeRequest
	if len(request.Params) > 0 {
		// Negotiation params are accepted but the advertised version is fixed.
		_ = json.Unmarshal(request.Params, &params)
	}

	result := InitializeResponse{
		ProtocolVersion: Version,
		Capabilities: ServerCapabilities{
			Tools: &struct {
				ListChanged bool `json:"listChanged"`
			}{ListChanged: false},
		},
		ServerInfo:   s.info,
		Instructions: s.instructions,
	}
	return jsonrpc.NewResponse(request.Id, result, nil)
}

func (s *Server) handleToolsList(request jsonrpc.Request) jsonrpc.Response {
	registered := s.registry.List()
	list := make([]Tool, len(registered))
	for i, t := range registered {
		list[i] = Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}
	return jsonrpc.NewResponse(request.Id, ToolsListResponse{Tools: list}, nil)
}

func (s *Server) handleToolsCall(ctx context.Context, request jsonrpc.Request) jsonrpc.Response {
	var params ToolCallParams
	if len(request.Params) == 0 {
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewDetailedError(jsonrpc.ErrInvalidParams, "params object required", nil))
	}
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, err.Error()))
	}

	tool, ok := s.registry.Lookup(params.Name)
	if !ok {
		s.logger.Warn("unknown tool", "tool", params.Name)
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewDetailedError(jsonrpc.ErrMethodNotFound, fmt.Sprintf("unknown tool %q", params.Name), nil))
	}

	payload, err := s.invoker.Invoke(ctx, tool, params.Arguments)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", params.Name, "error", err)
		return errorResponse(request.Id, err)
	}

	s.logger.Debug("tool call succeeded", "tool", params.Name)
	return jsonrpc.NewResponse(request.Id, ToolCallResponse{
		Content: []Content{NewTextContent(string(payload))},
	}, nil)
}
