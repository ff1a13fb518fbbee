package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/grparry/mcpinvoke/jsonrpc"
)

// Client is a minimal JSON-RPC client for an MCP server's HTTP transport.
// The HTTP client is supplied by the caller, so retry and timeout policy
// stay a hosting concern.
type Client struct {
	endpoint string
	http     *http.Client
	auth     string
	nextID   int
}

// NewClient creates a client for the given /rpc endpoint.
func NewClient(endpoint string, httpClient *http.Client, auth string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: httpClient, auth: auth}
}

// Initialize performs the initialize handshake.
func (c *Client) Initialize(ctx context.Context) (*InitializeResponse, error) {
	var out InitializeResponse
	params, _ := json.Marshal(InitializeRequest{ProtocolVersion: Version})
	if err := c.call(ctx, "initialize", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTools fetches the server's tool definitions.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var out ToolsListResponse
	if err := c.call(ctx, "tools/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Tools, nil
}

// CallTool invokes a tool by name with the given arguments object.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolCallResponse, error) {
	params, err := json.Marshal(ToolCallParams{Name: name, Arguments: arguments})
	if err != nil {
		return nil, err
	}
	var out ToolCallResponse
	if err := c.call(ctx, "tools/call", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method string, params json.RawMessage, result any) error {
	c.nextID++
	body, err := json.Marshal(jsonrpc.NewRequest(method, params, c.nextID))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *jsonrpc.Error  `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}
