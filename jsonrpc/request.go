package jsonrpc

import "encoding/json"

// Version is the JSON-RPC protocol version implemented by this package.
const Version = "2.0"

// Request represents a JSON-RPC request object
type Request struct {
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Id      interface{}     `json:"id,omitempty"`
}

// NewRequest creates a new Request object
func NewRequest(method string, params json.RawMessage, id interface{}) Request {
	return Request{
		Version: Version,
		Method:  method,
		Params:  params,
		Id:      id,
	}
}

// IsNotification reports whether the request is a notification, i.e. it
// carries no id (or an explicit null id) and must not receive a response.
func (r Request) IsNotification() bool {
	return r.Id == nil
}

// IsValid reports whether the request satisfies the JSON-RPC 2.0 envelope:
// the jsonrpc member must be exactly "2.0" and a method must be present.
func (r Request) IsValid() bool {
	return r.Version == Version && r.Method != ""
}
